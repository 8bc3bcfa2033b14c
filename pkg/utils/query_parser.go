package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gearguard/pkg/types"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ParseFilterFromQuery разбирает search, sort[x], filter[x], limit/page/offset.
// Ключи из allowedPlain (например, "department") принимаются и без обёртки filter[...].
func ParseFilterFromQuery(values url.Values, allowedPlain ...string) types.Filter {
	filterReq := types.Filter{
		Sort:   make(map[string]string),
		Filter: make(map[string]interface{}),
		Limit:  DefaultLimit,
		Page:   1,
	}

	if limitStr := values.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filterReq.Limit = min(l, MaxLimit)
			filterReq.WithPagination = true
		}
	}
	if pageStr := values.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filterReq.Page = p
			filterReq.WithPagination = true
		}
	}
	if offsetStr := values.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filterReq.Offset = o
			filterReq.Page = o/filterReq.Limit + 1
			filterReq.WithPagination = true
		}
	} else {
		filterReq.Offset = (filterReq.Page - 1) * filterReq.Limit
	}

	plain := make(map[string]bool, len(allowedPlain))
	for _, k := range allowedPlain {
		plain[k] = true
	}

	for key, vals := range values {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		switch {
		case key == "search":
			filterReq.Search = vals[0]
		case strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]"):
			direction := strings.ToLower(vals[0])
			if direction == "asc" || direction == "desc" {
				filterReq.Sort[key[5:len(key)-1]] = direction
			}
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			filterReq.Filter[key[7:len(key)-1]] = vals[0]
		case plain[key]:
			filterReq.Filter[key] = vals[0]
		}
	}
	return filterReq
}

// ParseOptionalUint читает необязательный числовой параметр.
func ParseOptionalUint(values url.Values, key string) (*uint64, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a positive integer", key)
	}
	return &v, nil
}

// ParseOptionalDate принимает RFC3339 или YYYY-MM-DD.
func ParseOptionalDate(values url.Values, key string) (*time.Time, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD or RFC3339)", key)
}
