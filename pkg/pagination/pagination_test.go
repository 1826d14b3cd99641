package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var limits = Limits{DefaultPerPage: 20, MaxPerPage: 100}

func TestFromQuery_Defaults(t *testing.T) {
	p, err := FromQuery(url.Values{}, limits)
	require.NoError(t, err)
	assert.Equal(t, Params{Page: 1, PerPage: 20}, p)
	assert.Equal(t, 0, p.Offset())
}

func TestFromQuery_Clamps(t *testing.T) {
	p, err := FromQuery(url.Values{"page": {"0"}, "per_page": {"500"}}, limits)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PerPage)

	p, err = FromQuery(url.Values{"page": {"3"}, "per_page": {"-2"}}, limits)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 40, p.Offset())
}

func TestFromQuery_CapsPage(t *testing.T) {
	capped := Limits{DefaultPerPage: 20, MaxPerPage: 100, MaxPage: 1000}
	p, err := FromQuery(url.Values{"page": {"9223372036854775807"}}, capped)
	require.NoError(t, err)
	assert.Equal(t, 1000, p.Page)
	assert.Equal(t, 999*20, p.Offset())
}

func TestFromQuery_NonNumeric(t *testing.T) {
	_, err := FromQuery(url.Values{"page": {"two"}}, limits)
	assert.EqualError(t, err, "page: must be an integer")

	_, err = FromQuery(url.Values{"per_page": {"x"}}, limits)
	assert.EqualError(t, err, "per_page: must be an integer")
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 0, TotalPages(5, 0))
}
