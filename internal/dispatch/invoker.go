package dispatch

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/dispatch/internal/log"
	"github.com/zjrosen/dispatch/internal/tracing"
)

// invoke executes the resolved entry's implementation. The result and any
// error pass through unchanged: no retry, no timeout, no wrapping. The
// chosen entry is recorded on a span for diagnostics only.
func (r *Registry) invoke(ctx context.Context, e *Entry, args []any, cached bool) (any, error) {
	ctx, span := r.tracer.Start(ctx, tracing.SpanPrefixInvoke+string(e.key),
		trace.WithAttributes(
			attribute.String(tracing.AttrDispatchKey, string(e.key)),
			attribute.String(tracing.AttrDispatchSignature, e.sig.String()),
			attribute.Int64(tracing.AttrDispatchSeq, int64(e.seq)),
			attribute.Int(tracing.AttrDispatchArity, len(args)),
			attribute.Bool(tracing.AttrDispatchCached, cached),
		))
	defer span.End()

	result, err := e.fn(ctx, args...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(
			attribute.String(tracing.AttrErrorMessage, err.Error()),
			attribute.String(tracing.AttrErrorType, fmt.Sprintf("%T", err)),
		)
		log.Debug(log.CatInvoke, "implementation returned error",
			"key", e.key, "signature", e.sig.String(), "error", err)
		return result, err
	}

	span.SetStatus(codes.Ok, "")
	return result, nil
}
