package tracing

// Span attribute keys for dispatch tracing.
// These constants define the semantic conventions for span attributes
// recorded by the Invoker.
const (
	// Dispatch attributes
	AttrDispatchKey       = "dispatch.key"
	AttrDispatchSignature = "dispatch.signature"
	AttrDispatchSeq       = "dispatch.seq"
	AttrDispatchArity     = "dispatch.arity"
	AttrDispatchCached    = "dispatch.cached"

	// Error attributes
	AttrErrorMessage = "error.message"
	AttrErrorType    = "error.type"
)

// Span name prefixes for consistent naming.
const (
	SpanPrefixInvoke = "dispatch.invoke."
)
