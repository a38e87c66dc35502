package obs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceMiddlewareContinuesCallerTrace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name    string
		header  string
		sampled bool
	}{
		{"sampled", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", true},
		{"not sampled", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			var sc trace.SpanContext
			r.Use(Middleware{}.Trace())
			r.GET("/", func(c *gin.Context) {
				sc = trace.SpanContextFromContext(c.Request.Context())
				c.Status(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(TraceparentHeader, tc.header)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())
			require.Equal(t, tc.sampled, sc.IsSampled())
			require.Equal(t, tc.header, w.Header().Get(TraceparentHeader))
		})
	}
}

func TestTraceMiddlewareStartsTrace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	headers := map[string]string{}
	r.Use(Middleware{}.Trace())
	r.GET("/", func(c *gin.Context) {
		InjectTrace(c.Request.Context(), headers)
		c.Status(http.StatusNoContent)
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceparentHeader, "01-zz-yy-00")
	r.ServeHTTP(w, req)
	require.NotEmpty(t, headers[TraceparentHeader])
	require.Equal(t, headers[TraceparentHeader], w.Header().Get(TraceparentHeader))
}

func TestInjectTraceKeepsExistingHeader(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := map[string]string{}
	InjectTrace(ctx, headers)
	require.Equal(t, "00-01000000000000000000000000000000-0200000000000000-01", headers[TraceparentHeader])

	kept := map[string]string{TraceparentHeader: "00-aa-bb-01"}
	InjectTrace(ctx, kept)
	require.Equal(t, "00-aa-bb-01", kept[TraceparentHeader])

	empty := map[string]string{}
	InjectTrace(context.Background(), empty)
	require.Empty(t, empty)
}

func TestReadyzReportsFailingChecks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := HealthHandlers{Checks: map[string]Check{
		"mongo": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}}
	r.GET("/readyz", h.Readyz)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "connection refused")
}
