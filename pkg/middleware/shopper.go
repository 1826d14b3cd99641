package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nefol/discovery/pkg/logger"
)

// ShopperHeader carries the caller's shopper identity. Authentication happens
// upstream; the discovery API only scopes recent searches by it.
const ShopperHeader = "X-User-ID"

// AnonymousShopper is used when no identity header is present.
const AnonymousShopper = "anonymous"

type shopperKey struct{}

// Shopper resolves the shopper ID from ShopperHeader and stores it in the
// request context, both for handlers and for log enrichment.
func Shopper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(ShopperHeader))
		if id == "" {
			id = AnonymousShopper
		}
		ctx := context.WithValue(r.Context(), shopperKey{}, id)
		ctx = logger.WithUserID(ctx, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ShopperFromContext returns the shopper ID set by Shopper, or
// AnonymousShopper.
func ShopperFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(shopperKey{}).(string); ok && id != "" {
		return id
	}
	return AnonymousShopper
}
