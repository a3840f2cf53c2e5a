package tracing

import (
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/shared/id"
	"github.com/gin-gonic/gin"
)

// HTTPMiddleware creates Gin middleware for HTTP tracing
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID, parentID := remoteParent(c)
		ctx := WithRemoteParent(c.Request.Context(), traceID, parentID)

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceHeader, span.TraceID.String())
		c.Header(SpanHeader, span.SpanID.String())

		c.Next()

		span.SetStatus(c.Writer.Status())
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}

		span.Finish()
		tracer.Submit(span)
	}
}

// remoteParent returns the caller's trace and span IDs. Malformed values are
// ignored so they never reach logs or response headers, and a span without
// its trace is dropped.
func remoteParent(c *gin.Context) (id.TraceID, id.SpanID) {
	traceID := c.GetHeader(TraceHeader)
	if !id.IsValidWithPrefix(traceID, id.TracePrefix) {
		return "", ""
	}
	spanID := c.GetHeader(SpanHeader)
	if !id.IsValidWithPrefix(spanID, id.SpanPrefix) {
		spanID = ""
	}
	return id.TraceID(traceID), id.SpanID(spanID)
}
