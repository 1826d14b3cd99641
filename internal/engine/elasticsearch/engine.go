package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/nefol/discovery/internal/domain"
	"github.com/nefol/discovery/internal/match"
	"github.com/nefol/discovery/internal/suggest"
)

// Engine is an Elasticsearch-backed implementation of the SearchEngine
// interface. It reproduces the in-memory matching and ranking rules in
// query DSL: wildcard substring matching, constant-score relevance tiers and
// catalog position as the final tie-break.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger

	matcher   *match.Matcher
	generator *suggest.Generator

	// posMu serializes position assignment for new documents.
	posMu   sync.Mutex
	nextPos int
}

// esSearchResponse is the structure used to decode Elasticsearch search responses.
type esSearchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations json.RawMessage `json:"aggregations"`
}

// esBulkResponse is the structure used to decode Elasticsearch bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// esMgetResponse is used to look up the positions of existing documents.
type esMgetResponse struct {
	Docs []struct {
		ID     string `json:"_id"`
		Found  bool   `json:"found"`
		Source struct {
			Position int `json:"position"`
		} `json:"_source"`
	} `json:"docs"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// Config holds the connection settings.
type Config struct {
	URL       string
	IndexName string
	// Transport overrides the HTTP transport, used by tests.
	Transport http.RoundTripper
}

// New creates a new Elasticsearch engine and ensures the products index
// exists, creating it if necessary. If IndexName is empty, DefaultIndexName
// is used.
func New(ctx context.Context, cfg Config, matcher *match.Matcher, generator *suggest.Generator, logger *slog.Logger) (*Engine, error) {
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	e := &Engine{
		client:    client,
		indexName: cfg.IndexName,
		logger:    logger,
		matcher:   matcher,
		generator: generator,
	}

	if err := e.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to ensure index: %w", err)
	}
	if err := e.loadNextPosition(ctx); err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to load catalog position: %w", err)
	}

	return e, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// ensureIndex checks whether the products index exists and creates it if not.
func (e *Engine) ensureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.indexName}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		e.logger.Info("elasticsearch index already exists", "index", e.indexName)
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("create index", res)
	}

	e.logger.Info("elasticsearch index created", "index", e.indexName)
	return nil
}

// loadNextPosition reads the highest assigned catalog position.
func (e *Engine) loadNextPosition(ctx context.Context) error {
	body := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"max_position": map[string]interface{}{
				"max": map[string]interface{}{"field": "position"},
			},
		},
	}

	var resp struct {
		Aggregations struct {
			MaxPosition struct {
				Value *float64 `json:"value"`
			} `json:"max_position"`
		} `json:"aggregations"`
	}
	if err := e.search(ctx, "load position", body, &resp); err != nil {
		return err
	}

	e.posMu.Lock()
	defer e.posMu.Unlock()
	if v := resp.Aggregations.MaxPosition.Value; v != nil {
		e.nextPos = int(*v) + 1
	}
	return nil
}

// Index adds or updates a single product in the Elasticsearch index.
func (e *Engine) Index(ctx context.Context, product *domain.Product) error {
	products := []domain.Product{*product}
	if err := e.assignPositions(ctx, products); err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}

	data, err := json.Marshal(newDocument(products[0]))
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal product: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(product.ID),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("elasticsearch index", res)
	}

	e.logger.Debug("indexed product", "id", product.ID, "title", product.Title)
	return nil
}

// Delete removes a product from the Elasticsearch index by its ID.
// It does not return an error if the document does not exist (404 is ignored).
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithRefresh("true"),
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("elasticsearch delete", res)
	}

	e.logger.Debug("deleted product", "id", id)
	return nil
}

// BulkIndex adds or updates multiple products using the bulk NDJSON API.
func (e *Engine) BulkIndex(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	docs := make([]domain.Product, len(products))
	copy(docs, products)
	if err := e.assignPositions(ctx, docs); err != nil {
		return fmt.Errorf("elasticsearch bulk index: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range docs {
		action := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": e.indexName,
				"_id":    docs[i].ID,
			},
		}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := enc.Encode(newDocument(docs[i])); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("elasticsearch bulk index", res)
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}

	if bulkResp.Errors {
		var errMsgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type != "" {
				errMsgs = append(errMsgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(errMsgs, "; "))
	}

	e.logger.Info("bulk indexed products", "count", len(products))
	return nil
}

// assignPositions keeps the position of documents that already exist and
// appends new ones to catalog order.
func (e *Engine) assignPositions(ctx context.Context, products []domain.Product) error {
	ids := make([]string, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}

	data, err := json.Marshal(map[string]interface{}{"ids": ids})
	if err != nil {
		return fmt.Errorf("marshal mget: %w", err)
	}

	res, err := e.client.Mget(
		bytes.NewReader(data),
		e.client.Mget.WithIndex(e.indexName),
		e.client.Mget.WithSourceIncludes("position"),
		e.client.Mget.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("mget: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("mget", res)
	}

	var mget esMgetResponse
	if err := json.NewDecoder(res.Body).Decode(&mget); err != nil {
		return fmt.Errorf("mget: decode response: %w", err)
	}

	existing := make(map[string]int, len(mget.Docs))
	for _, doc := range mget.Docs {
		if doc.Found {
			existing[doc.ID] = doc.Source.Position
		}
	}

	e.posMu.Lock()
	defer e.posMu.Unlock()
	for i := range products {
		if pos, ok := existing[products[i].ID]; ok {
			products[i].Position = pos
			continue
		}
		products[i].Position = e.nextPos
		existing[products[i].ID] = e.nextPos
		e.nextPos++
	}
	return nil
}

// Search executes a search query against Elasticsearch and returns one page.
func (e *Engine) Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error) {
	start := time.Now()

	q := *query
	q.Clamp()
	q.Filters = q.Filters.Normalized()

	body := buildSearchQuery(e.matcher.Compile(q.Query), &q)

	var esResp esSearchResponse
	if err := e.search(ctx, "elasticsearch search", body, &esResp); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		products = append(products, hit.Source.Product)
	}

	total := esResp.Hits.Total.Value
	return &domain.SearchResult{
		Products:   products,
		Total:      total,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: domain.TotalPages(total, q.PerPage),
		TookMs:     time.Since(start).Milliseconds(),
	}, nil
}

// Count returns the number of indexed products.
func (e *Engine) Count(ctx context.Context) (int, error) {
	res, err := e.client.Count(
		e.client.Count.WithIndex(e.indexName),
		e.client.Count.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch count: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return 0, responseError("elasticsearch count", res)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return 0, fmt.Errorf("elasticsearch count: decode response: %w", err)
	}
	return resp.Count, nil
}

// DeleteIndex removes the entire Elasticsearch index.
// It is intended for testing and administrative operations only.
// A 404 response is treated as success (index already absent).
func (e *Engine) DeleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete(
		[]string{e.indexName},
		e.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("elasticsearch delete index", res)
	}

	e.logger.Info("elasticsearch index deleted", "index", e.indexName)
	return nil
}

// search runs a _search request with body and decodes the response into out.
func (e *Engine) search(ctx context.Context, op string, body map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal query: %w", op, err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError(op, res)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// responseError decodes an Elasticsearch error body into an error.
func responseError(op string, res *esapi.Response) error {
	raw, _ := io.ReadAll(res.Body)
	var errResp esErrorResponse
	if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, res.Status())
}
