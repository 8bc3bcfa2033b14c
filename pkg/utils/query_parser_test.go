package utils

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilterFromQuery(t *testing.T) {
	values, err := url.ParseQuery("search=cnc&sort[name]=DESC&sort[id]=sideways&filter[team_id]=1,2&department=Facilities&unknown=1&limit=500&page=3")
	require.NoError(t, err)

	f := ParseFilterFromQuery(values, "department")

	assert.Equal(t, "cnc", f.Search)
	assert.Equal(t, map[string]string{"name": "desc"}, f.Sort)
	assert.Equal(t, "1,2", f.Filter["team_id"])
	assert.Equal(t, "Facilities", f.Filter["department"])
	assert.NotContains(t, f.Filter, "unknown")
	assert.Equal(t, MaxLimit, f.Limit)
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 200, f.Offset)
	assert.True(t, f.WithPagination)
}

func TestParseFilterWithoutPagination(t *testing.T) {
	f := ParseFilterFromQuery(url.Values{})
	assert.False(t, f.WithPagination)
	assert.Equal(t, DefaultLimit, f.Limit)
	assert.Equal(t, 0, f.Offset)
}

func TestParseOptionalUint(t *testing.T) {
	v, err := ParseOptionalUint(url.Values{"team_id": {"7"}}, "team_id")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), *v)

	v, err = ParseOptionalUint(url.Values{}, "team_id")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseOptionalUint(url.Values{"team_id": {"-1"}}, "team_id")
	assert.Error(t, err)
}

func TestParseOptionalDate(t *testing.T) {
	d, err := ParseOptionalDate(url.Values{"start": {"2025-03-01"}}, "start")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *d)

	d, err = ParseOptionalDate(url.Values{"start": {"2025-03-01T10:00:00+02:00"}}, "start")
	require.NoError(t, err)
	assert.Equal(t, 8, d.Hour())

	_, err = ParseOptionalDate(url.Values{"start": {"yesterday"}}, "start")
	assert.Error(t, err)
}
