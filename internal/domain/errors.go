package domain

import "errors"

// Discovery error taxonomy.
var (
	// ErrMalformedResponse means a collaborator returned non-JSON or an
	// unexpected shape.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNetworkFailure means a collaborator was unreachable or answered non-2xx.
	ErrNetworkFailure = errors.New("network failure")

	// ErrStaleResult marks a response that no longer matches the latest
	// dispatched query. It is discarded, never shown.
	ErrStaleResult = errors.New("stale result")

	// ErrInvalidFilter means a FilterState violates its invariants.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidProduct means a raw record cannot be normalized into a product.
	ErrInvalidProduct = errors.New("invalid product")
)
