/*
Package tracing provides lightweight request tracing.

Spans are correlated by a trace ID that travels in the X-Trace-ID header,
with X-Span-ID naming the caller's span. Finished spans are handed to a
buffered collector that writes them as structured log lines; nothing is
exported to an external backend.

# Usage

	tracer := tracing.New("markertrack", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "session.start")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
