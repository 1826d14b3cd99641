// Package client talks to the discovery HTTP API. It is the remote
// dispatcher of a query session and the facet collaborator of the terminal
// UI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nefol/discovery/internal/domain"
	"github.com/nefol/discovery/pkg/httpclient"
	"github.com/nefol/discovery/pkg/httputil"
	"github.com/nefol/discovery/pkg/middleware"
)

const (
	serviceName  = "discovery"
	apiPrefix    = "/api/v1/discovery"
	maxBodyBytes = 10 << 20
)

// Config holds the API client configuration.
type Config struct {
	BaseURL string
	// User is sent as the shopper identity; blank means anonymous.
	User    string
	HTTP    httpclient.Config
	Breaker httpclient.CircuitBreakerConfig
}

// DefaultConfig returns interactive defaults for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		HTTP:    httpclient.DefaultConfig(),
		Breaker: httpclient.DefaultCircuitBreakerConfig("discovery-api"),
	}
}

// Client calls the discovery API. It implements session.Dispatcher,
// session.Suggester and history.RecentStore.
type Client struct {
	baseURL string
	user    string
	doer    httpclient.Doer
	logger  *slog.Logger
}

// New creates a Client with a pooled transport behind a circuit breaker.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	doer := httpclient.NewCircuitBreakerClient(httpclient.New(cfg.HTTP), cfg.Breaker, logger)
	return NewWithDoer(cfg.BaseURL, cfg.User, doer, logger)
}

// NewWithDoer creates a Client over an existing Doer.
func NewWithDoer(baseURL, user string, doer httpclient.Doer, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid discovery API URL %q", baseURL)
	}
	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		user:    user,
		doer:    doer,
		logger:  logger,
	}, nil
}

// Search runs one discovery query.
func (c *Client) Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error) {
	var result domain.SearchResult
	if err := c.do(ctx, http.MethodGet, "/search", SearchParams(query), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Suggest returns autocomplete suggestions for a partial query.
func (c *Client) Suggest(ctx context.Context, partial string) ([]domain.Suggestion, error) {
	var resp struct {
		Suggestions []domain.Suggestion `json:"suggestions"`
	}
	if err := c.do(ctx, http.MethodGet, "/suggest", url.Values{"q": {partial}}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

// Facets fetches the catalog facet summary.
func (c *Client) Facets(ctx context.Context) (*domain.FacetSummary, error) {
	var summary domain.FacetSummary
	if err := c.do(ctx, http.MethodGet, "/facets", nil, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Popular fetches the popular queries shown in browse mode.
func (c *Client) Popular(ctx context.Context) ([]string, error) {
	var resp struct {
		Popular []string `json:"popular"`
	}
	if err := c.do(ctx, http.MethodGet, "/popular", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Popular, nil
}

type recentResponse struct {
	Recent []string `json:"recent"`
}

// Recent returns the server-side recent searches of user.
func (c *Client) Recent(ctx context.Context, user string) ([]string, error) {
	var resp recentResponse
	if err := c.doAs(ctx, user, http.MethodGet, "/recent", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Recent, nil
}

// Push records a submitted query as a recent search of user.
func (c *Client) Push(ctx context.Context, user, query string) ([]string, error) {
	var resp recentResponse
	body := map[string]string{"query": query}
	if err := c.doAs(ctx, user, http.MethodPost, "/recent", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Recent, nil
}

// Clear removes the recent searches of user.
func (c *Client) Clear(ctx context.Context, user string) error {
	return c.doAs(ctx, user, http.MethodDelete, "/recent", nil, nil, nil)
}

// SearchParams encodes query the way the search endpoint parses it.
func SearchParams(query *domain.SearchQuery) url.Values {
	v := url.Values{}
	if q := strings.TrimSpace(query.Query); q != "" {
		v.Set("q", q)
	}

	fs := query.Filters
	setOptional(v, "category", fs.Category)
	setOptional(v, "skin_type", fs.SkinType)
	setOptional(v, "hair_type", fs.HairType)
	if fs.MinPrice != nil {
		v.Set("min_price", strconv.FormatFloat(*fs.MinPrice, 'f', -1, 64))
	}
	if fs.MaxPrice != nil {
		v.Set("max_price", strconv.FormatFloat(*fs.MaxPrice, 'f', -1, 64))
	}
	if len(fs.Ingredients) > 0 {
		v.Set("ingredients", strings.Join(fs.Ingredients, ","))
	}
	if fs.SortKey != "" {
		v.Set("sort", string(fs.SortKey))
	}
	if fs.SortDirection != "" {
		v.Set("direction", string(fs.SortDirection))
	}
	if query.Page > 0 {
		v.Set("page", strconv.Itoa(query.Page))
	}
	if query.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(query.PerPage))
	}
	return v
}

func setOptional(v url.Values, key string, value *string) {
	if value != nil && strings.TrimSpace(*value) != "" {
		v.Set(key, strings.TrimSpace(*value))
	}
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, dst any) error {
	return c.doAs(ctx, c.user, method, path, params, body, dst)
}

// doAs performs one API call. Transport failures and non-2xx answers wrap
// domain.ErrNetworkFailure; undecodable bodies wrap domain.ErrMalformedResponse.
func (c *Client) doAs(ctx context.Context, user, method, path string, params url.Values, body, dst any) error {
	target := c.baseURL + apiPrefix + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(middleware.ShopperHeader, user)
	}

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: call %s %s: %w", domain.ErrNetworkFailure, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %w", domain.ErrNetworkFailure, httpclient.ParseResponseError(resp, serviceName))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || dst == nil {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", domain.ErrNetworkFailure, path, err)
	}

	apiErr, err := httputil.DecodeEnvelope(data, dst)
	if err != nil {
		c.logger.DebugContext(ctx, "undecodable discovery response",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: decode %s response: %w", domain.ErrMalformedResponse, path, err)
	}
	if apiErr != nil {
		return fmt.Errorf("%w: %s: %s", domain.ErrNetworkFailure, apiErr.Code, apiErr.Message)
	}
	return nil
}
