package bb84

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/qkdsim/bb84"

// spanEnder ends a span, marking it failed if err is non-nil.
type spanEnder func(err error)

// startSpan starts a span using the global tracer provider, which is a no-op
// unless the host program installs one.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, spanEnder) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...))
	return ctx, span, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

func resultAttributes(r Result) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("bb84.intercepted", r.InterceptedCount),
		attribute.Int("bb84.sifted", r.SiftedLength),
		attribute.Int("bb84.sampled", r.SampleCount),
		attribute.Float64("bb84.qber", r.QBER),
		attribute.Bool("bb84.suspicious", r.Suspicious),
		attribute.Int("bb84.raw_key_bits", r.RawKeyBitCount),
	}
}
