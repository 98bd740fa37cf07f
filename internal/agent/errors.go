package agent

import (
	"errors"
	"fmt"

	"github.com/p-n-ai/pai-roadmap/internal/ai"
	"github.com/p-n-ai/pai-roadmap/internal/docstore"
)

var (
	// ErrNotFound means the user, curriculum or module does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamSchema means an oracle answered, but its output failed validation.
	ErrUpstreamSchema = errors.New("upstream output failed validation")
	// ErrUpstreamUnavailable means an oracle could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrStoreUnavailable means the document store failed at the transport level.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrInvalidRequest means caller-supplied input is malformed.
	ErrInvalidRequest = errors.New("invalid request")
)

// Kind is the stable machine-readable name of a failure.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindUpstreamSchema      Kind = "upstream_schema"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindStoreUnavailable    Kind = "store_unavailable"
	KindInvalidRequest      Kind = "invalid_request"
	KindInternal            Kind = "internal"
)

// KindOf classifies err. Unclassified errors are internal.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrUpstreamSchema):
		return KindUpstreamSchema
	case errors.Is(err, ErrUpstreamUnavailable):
		return KindUpstreamUnavailable
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	default:
		return KindInternal
	}
}

// storeError translates a docstore failure into the core taxonomy.
func storeError(op string, err error) error {
	if errors.Is(err, docstore.ErrInvalidPath) {
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidRequest, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// oracleError separates "answered unusably" from "could not answer".
func oracleError(op string, err error) error {
	if errors.Is(err, ai.ErrInvalidJSON) {
		return fmt.Errorf("%s: %w: %w", op, ErrUpstreamSchema, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
}
