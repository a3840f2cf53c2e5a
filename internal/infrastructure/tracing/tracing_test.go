package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/shared/id"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(t *testing.T) (*Tracer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	tracer := New("test", zap.New(core))
	t.Cleanup(tracer.Close)
	return tracer, logs
}

func TestStartSpanNewTrace(t *testing.T) {
	tracer, _ := newObserved(t)

	span, ctx := tracer.StartSpan(context.Background(), "op")
	assert.True(t, id.IsValid(span.TraceID.String()))
	assert.Empty(t, span.ParentID)
	assert.Equal(t, span.TraceID, GetTraceID(ctx))
	assert.Equal(t, span.SpanID, GetSpanID(ctx))

	child, _ := tracer.StartSpan(ctx, "child")
	assert.Equal(t, span.TraceID, child.TraceID)
	assert.Equal(t, span.SpanID, child.ParentID)
	assert.NotEqual(t, span.SpanID, child.SpanID)
}

func TestSubmitLogsSpan(t *testing.T) {
	tracer, logs := newObserved(t)

	span, _ := tracer.StartSpan(context.Background(), "failing")
	span.SetError(errors.New("boom"))
	span.Finish()
	tracer.Submit(span)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("span completed with error").Len() == 1
	}, time.Second, 10*time.Millisecond)

	entry := logs.FilterMessage("span completed with error").All()[0]
	assert.Equal(t, "failing", entry.ContextMap()["operation"])
	assert.Equal(t, int64(500), entry.ContextMap()["status"])
}

func TestSubmitAfterClose(t *testing.T) {
	tracer, _ := newObserved(t)
	tracer.Close()
	tracer.Close()

	span, _ := tracer.StartSpan(context.Background(), "late")
	assert.NotPanics(t, func() { tracer.Submit(span) })
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newObserved(t)

	var seen id.TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/markers", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("new trace", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/markers", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(TraceHeader))
		assert.Equal(t, seen.String(), w.Header().Get(TraceHeader))
	})

	t.Run("propagated trace", func(t *testing.T) {
		incoming := id.NewTraceID()
		req := httptest.NewRequest(http.MethodGet, "/markers", nil)
		req.Header.Set(TraceHeader, incoming.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, incoming.String(), w.Header().Get(TraceHeader))
		assert.Equal(t, incoming, seen)
	})

	rejected := []struct {
		name  string
		value string
	}{
		{name: "header injection", value: "trace_x\r\nX-Injected: 1"},
		{name: "not a ulid", value: "trace_not-a-ulid"},
		{name: "span id as trace id", value: id.NewSpanID().String()},
		{name: "oversized", value: "trace_" + strings.Repeat("A", 4096)},
	}
	for _, tt := range rejected {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/markers", nil)
			req.Header.Set(TraceHeader, tt.value)
			req.Header.Set(SpanHeader, id.NewSpanID().String())
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			got := w.Header().Get(TraceHeader)
			assert.NotEqual(t, tt.value, got)
			assert.True(t, id.IsValidWithPrefix(got, id.TracePrefix))
			assert.Equal(t, got, seen.String())
		})
	}

	require.Eventually(t, func() bool {
		return logs.FilterMessage("span completed").Len() == 6
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "GET /markers", logs.FilterMessage("span completed").All()[0].ContextMap()["operation"])
}
