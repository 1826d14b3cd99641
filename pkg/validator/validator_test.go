package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recentRequest struct {
	Query string `json:"query" validate:"required,max=200"`
}

type bulkRequest struct {
	Products []map[string]any `json:"products" validate:"required,min=1,max=2"`
	Limit    int              `json:"limit" validate:"gte=0,lte=50"`
	Mode     string           `json:"mode" validate:"omitempty,oneof=file postgres"`
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(recentRequest{Query: "onion oil"}))
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := Validate(recentRequest{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, map[string]string{"query": "is required"}, valErr.Fields())
	assert.Equal(t, "field 'query' is required", valErr.Error())
}

func TestValidate_Messages(t *testing.T) {
	err := Validate(bulkRequest{Products: []map[string]any{{}, {}, {}}, Limit: 51, Mode: "csv"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must contain at most 2 items", fields["products"])
	assert.Equal(t, "must be less than or equal to 50", fields["limit"])
	assert.Equal(t, "must be one of: file postgres", fields["mode"])
}

func TestValidate_MaxLength(t *testing.T) {
	err := Validate(recentRequest{Query: strings.Repeat("a", 201)})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be at most 200 characters", valErr.Fields()["query"])
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/recent", strings.NewReader(`{"query":"retinol"}`))
	var dst recentRequest
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "retinol", dst.Query)

	req = httptest.NewRequest(http.MethodPost, "/recent", strings.NewReader(`{"query":`))
	err := DecodeAndValidate(req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")

	req = httptest.NewRequest(http.MethodPost, "/recent", strings.NewReader(`{}`))
	var empty recentRequest
	var valErr *ValidationError
	assert.ErrorAs(t, DecodeAndValidate(req, &empty), &valErr)
}
