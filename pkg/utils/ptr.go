package utils

import (
	"time"

	"github.com/aarondl/null/v8"
)

func SafeDeref[T any](ptr *T) T {
	if ptr == nil {
		var zero T
		return zero
	}
	return *ptr
}

func ToPtr[T any](v T) *T {
	return &v
}

// Конвертеры null-типов из DTO в указатели сущностей.

func StringPtr(v null.String) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func Uint64Ptr(v null.Uint64) *uint64 {
	if !v.Valid {
		return nil
	}
	return &v.Uint64
}

func Float64Ptr(v null.Float64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func TimePtr(v null.Time) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}
