package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// RequestIDHeader carries the caller's or the generated request ID.
	RequestIDHeader = "X-Request-ID"

	// TraceIDHeader carries the trace ID of the request span.
	TraceIDHeader = "X-Trace-ID"
)

var tracer = otel.Tracer("tradewatch-api")

type requestKey struct{}

// requestScope follows one HTTP request through the middleware chain.
// Handlers add scoring outcomes with annotate; the tracing middleware puts
// them on the request span and the logging middleware on the access log.
type requestScope struct {
	requestID string
	traceID   string
	span      trace.Span
	attrs     []attribute.KeyValue
}

func scopeFrom(ctx context.Context) *requestScope {
	scope, _ := ctx.Value(requestKey{}).(*requestScope)
	return scope
}

// annotate records scoring outcomes such as risk.tier or batch.id for the
// current request. It is a no-op outside TracingMiddleware.
func annotate(ctx context.Context, attrs ...attribute.KeyValue) {
	scope := scopeFrom(ctx)
	if scope == nil {
		return
	}
	scope.attrs = append(scope.attrs, attrs...)
	scope.span.SetAttributes(attrs...)
}

// TracingMiddleware opens the request span and assigns request and trace IDs.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.path", r.URL.Path),
				attribute.String("request.id", requestID),
			),
		)
		defer span.End()

		// Without an exporter the span context is empty; fall back to the request ID.
		traceID := requestID
		if sc := span.SpanContext(); sc.TraceID().IsValid() {
			traceID = sc.TraceID().String()
		}

		scope := &requestScope{requestID: requestID, traceID: traceID, span: span}
		ctx = context.WithValue(ctx, requestKey{}, scope)

		w.Header().Set(RequestIDHeader, requestID)
		w.Header().Set(TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware writes one access log line per request, including any
// scoring outcome the handler annotated.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if scope := scopeFrom(r.Context()); scope != nil {
			args = append(args, "request_id", scope.requestID, "trace_id", scope.traceID)
			for _, kv := range scope.attrs {
				args = append(args, string(kv.Key), kv.Value.AsInterface())
			}
		}

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "http request", args...)
	})
}

// CORSMiddleware lets browser dashboards call the scoring endpoints. The API
// is unauthenticated, so credentials are never allowed.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		h.Set("Access-Control-Expose-Headers", RequestIDHeader+", "+TraceIDHeader)
		h.Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RecoverMiddleware turns a panic in a handler into a JSON 500.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				slog.Error("panic recovered",
					"error", v,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error": "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// BodyLimitMiddleware caps request bodies at maxBytes. Handlers answer 413
// when a batch exceeds it.
func BodyLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// GetRequestID returns the request ID assigned by TracingMiddleware.
func GetRequestID(ctx context.Context) string {
	if scope := scopeFrom(ctx); scope != nil {
		return scope.requestID
	}
	return ""
}

// GetTraceID returns the trace ID assigned by TracingMiddleware.
func GetTraceID(ctx context.Context) string {
	if scope := scopeFrom(ctx); scope != nil {
		return scope.traceID
	}
	return ""
}
