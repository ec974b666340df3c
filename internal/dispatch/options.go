package dispatch

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/dispatch/internal/cachemanager"
)

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithResolutionCache enables memoization of successful resolutions, keyed
// by argument type tuple and snapshot generation. Only keys whose live
// entries carry no predicate constraints are cached: predicates inspect
// values, so a type-keyed cache would be unsound for them.
func WithResolutionCache(ttl time.Duration) Option {
	return func(r *Registry) {
		r.cache = cachemanager.NewInMemoryCacheManager[string, *Entry](
			"dispatch-resolution", ttl, cachemanager.DefaultCleanupInterval)
		r.cacheTTL = ttl
	}
}

// WithTracer records each invocation on a span from the given tracer:
// key, chosen signature, sequence number, arity, cache hit. Recording
// never alters the returned value or error.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) {
		r.tracer = t
	}
}

type registerOptions struct {
	override bool
	metadata map[string]any
}

// RegisterOption configures a single registration.
type RegisterOption func(*registerOptions)

// Override requests that a registration replace an existing entry with an
// identical signature. The earlier entry is retired outright and no longer
// participates in dispatch. Without Override, an identical signature is a
// *DuplicateError.
func Override() RegisterOption {
	return func(o *registerOptions) {
		o.override = true
	}
}

// WithMetadata attaches arbitrary bookkeeping metadata to the entry,
// visible through Entry.Metadata and the introspection surface.
func WithMetadata(meta map[string]any) RegisterOption {
	return func(o *registerOptions) {
		o.metadata = meta
	}
}
