package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nefol/discovery/internal/service"
	apperrors "github.com/nefol/discovery/pkg/errors"
	"github.com/nefol/discovery/pkg/httputil"
	"github.com/nefol/discovery/pkg/middleware"
	"github.com/nefol/discovery/pkg/validator"
)

// DiscoveryHandler handles HTTP requests for discovery endpoints.
type DiscoveryHandler struct {
	service *service.DiscoveryService
	logger  *slog.Logger
}

// NewDiscoveryHandler creates a new discovery HTTP handler.
func NewDiscoveryHandler(svc *service.DiscoveryService, logger *slog.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// BulkIndexRequest is the JSON request body for bulk indexing. Each product
// is a raw catalog record; fields are resolved server-side.
type BulkIndexRequest struct {
	Products []map[string]any `json:"products" validate:"required,min=1,max=500"`
}

// RecentSearchRequest is the JSON request body for recording a search.
type RecentSearchRequest struct {
	Query string `json:"query" validate:"required,max=200"`
}

// --- Read handlers ---

// Search handles GET /api/v1/discovery/search
func (h *DiscoveryHandler) Search(w http.ResponseWriter, r *http.Request) {
	query, err := parseSearchQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Search(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, result)
}

// Suggest handles GET /api/v1/discovery/suggest
func (h *DiscoveryHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.service.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]any{"suggestions": suggestions})
}

// Facets handles GET /api/v1/discovery/facets
func (h *DiscoveryHandler) Facets(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Facets(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, summary)
}

// Popular handles GET /api/v1/discovery/popular
func (h *DiscoveryHandler) Popular(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, map[string]any{"popular": h.service.Popular(r.Context())})
}

// --- Recent searches ---

// Recent handles GET /api/v1/discovery/recent
func (h *DiscoveryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Recent(r.Context(), middleware.ShopperFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]any{"recent": list})
}

// PushRecent handles POST /api/v1/discovery/recent
func (h *DiscoveryHandler) PushRecent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)

	var req RecentSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	list, err := h.service.PushRecent(r.Context(), middleware.ShopperFromContext(r.Context()), req.Query)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]any{"recent": list})
}

// ClearRecent handles DELETE /api/v1/discovery/recent
func (h *DiscoveryHandler) ClearRecent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearRecent(r.Context(), middleware.ShopperFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]any{"recent": []string{}})
}

// --- Catalog maintenance ---

// IndexProduct handles POST /api/v1/discovery/index
func (h *DiscoveryHandler) IndexProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	product, err := h.service.IndexRaw(r.Context(), raw)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]string{"id": product.ID, "status": "indexed"})
}

// BulkIndex handles POST /api/v1/discovery/bulk
func (h *DiscoveryHandler) BulkIndex(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	var req BulkIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	indexed, skipped, err := h.service.BulkIndexRaw(r.Context(), req.Products)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]any{"indexed": indexed, "skipped": skipped, "status": "ok"})
}

// DeleteProduct handles DELETE /api/v1/discovery/{id}
func (h *DiscoveryHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, map[string]string{"id": id, "status": "deleted"})
}

// Reindex handles POST /api/v1/discovery/reindex. The reindex runs in the
// background; the response only acknowledges it.
func (h *DiscoveryHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if !h.service.HasCatalogSource() {
		httputil.WriteError(w, r, apperrors.Unavailable("catalog source", service.ErrNoCatalogSource), h.logger)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	go func() {
		if _, err := h.service.Reindex(ctx); err != nil {
			h.logger.ErrorContext(ctx, "background reindex failed", slog.String("error", err.Error()))
		}
	}()

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "reindex started"}})
}
