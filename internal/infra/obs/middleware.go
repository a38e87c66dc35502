package obs

import (
	"context"
	"crypto/rand"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const TraceparentHeader = "traceparent"

type Middleware struct {
	Logger *slog.Logger
}

func (m Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), requestIDKey{}, id)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

// Trace continues the caller's W3C trace or starts a new one, and stores the span
// context on the request so downstream writers (outbox records) can propagate it.
func (m Middleware) Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := Propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		sc := trace.SpanContextFromContext(ctx)
		if !sc.IsValid() {
			sc = newSpanContext()
			ctx = trace.ContextWithSpanContext(ctx, sc)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set("trace_id", sc.TraceID().String())
		Propagator.Inject(ctx, propagation.HeaderCarrier(c.Writer.Header()))
		c.Next()
	}
}

func (m Middleware) LoggerMiddleware() gin.HandlerFunc {
	log := m.Logger
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if log == nil {
			return
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString("request_id"),
			"trace_id", c.GetString("trace_id"),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		log.Info("http", attrs...)
	}
}

type requestIDKey struct{}

func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Propagator reads and writes the W3C traceparent header on HTTP requests and outbox records.
var Propagator propagation.TextMapPropagator = propagation.TraceContext{}

// InjectTrace writes the span context of ctx into headers unless a traceparent is already set.
func InjectTrace(ctx context.Context, headers map[string]string) {
	carrier := propagation.MapCarrier(headers)
	if carrier.Get(TraceparentHeader) != "" {
		return
	}
	Propagator.Inject(ctx, carrier)
}

func newSpanContext() trace.SpanContext {
	var traceID trace.TraceID
	var spanID trace.SpanID
	_, _ = rand.Read(traceID[:])
	_, _ = rand.Read(spanID[:])
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
}
