package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nefol/discovery/pkg/logger"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &out))
	return out
}

func TestRequestLogging_GeneratesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter("discovery", "info", &buf)

	var seen string
	handler := RequestLogging(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/discovery/search?q=onion", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(CorrelationHeader))

	entry := lastLine(t, &buf)
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "onion", entry["query"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, seen, entry["correlation_id"])
}

func TestRequestLogging_KeepsInboundCorrelationID(t *testing.T) {
	handler := RequestLogging(logger.Discard())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationHeader, "corr-42")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "corr-42", rr.Header().Get(CorrelationHeader))
}

func TestRequestLogger_EnrichesScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("discovery", "info", &buf)

	chain := RequestLogging(logger.Discard())(Shopper(RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("handler log")
	}))))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationHeader, "corr-7")
	req.Header.Set(ShopperHeader, "shopper-9")
	chain.ServeHTTP(httptest.NewRecorder(), req)

	entry := lastLine(t, &buf)
	assert.Equal(t, "handler log", entry["msg"])
	assert.Equal(t, "corr-7", entry["correlation_id"])
	assert.Equal(t, "shopper-9", entry["user_id"])
}

func TestShopper_DefaultsToAnonymous(t *testing.T) {
	var got string
	handler := Shopper(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ShopperFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, AnonymousShopper, got)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ShopperHeader, "  u-1 ")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "u-1", got)
}

func TestRecovery_WritesEnvelope(t *testing.T) {
	handler := Recovery(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("nil catalog"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":{"code":"INTERNAL_ERROR","message":"an internal error occurred"}}`, rr.Body.String())
}

func TestCacheControl(t *testing.T) {
	handler := CacheControl(time.Minute)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/facets", nil))
	assert.Equal(t, "public, max-age=60", rr.Header().Get("Cache-Control"))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/facets", nil))
	assert.Empty(t, rr.Header().Get("Cache-Control"))
}
