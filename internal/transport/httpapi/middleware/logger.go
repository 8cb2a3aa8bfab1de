package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/pkg/logger"
)

type requestTraceKey struct{}

// requestTrace collects what inner middleware learns about the request
// so the outer access log line can report it.
type requestTrace struct {
	callerID uuid.UUID
	role     string
}

// traceCaller records the authenticated caller on the request trace, if any
func traceCaller(ctx context.Context, id uuid.UUID, role string) {
	if tr, ok := ctx.Value(requestTraceKey{}).(*requestTrace); ok {
		tr.callerID = id
		tr.role = role
	}
}

// errorTap keeps the body of error responses for the log line
type errorTap struct {
	chimiddleware.WrapResponseWriter
	body bytes.Buffer
}

func (t *errorTap) Write(b []byte) (int, error) {
	if t.Status() >= http.StatusBadRequest {
		t.body.Write(b)
	}
	return t.WrapResponseWriter.Write(b)
}

func (t *errorTap) errorMessage() string {
	if t.body.Len() == 0 {
		return ""
	}
	var env struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(t.body.Bytes(), &env) != nil {
		return ""
	}
	return env.Error
}

// Logger writes one access line per request. Server errors log at error
// level, client errors at warn.
func Logger(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			tap := &errorTap{WrapResponseWriter: chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)}
			trace := &requestTrace{}

			ctx := context.WithValue(r.Context(), requestTraceKey{}, trace)
			reqID := chimiddleware.GetReqID(ctx)
			if reqID != "" {
				ctx = context.WithValue(ctx, logger.RequestIDKey, reqID)
			}
			r = r.WithContext(ctx)

			defer func() {
				attrs := accessAttrs(r, tap, trace, reqID, time.Since(start))
				log.Log(r.Context(), accessLevel(tap.Status()), "HTTP request", attrs...)
			}()

			next.ServeHTTP(tap, r)
		})
	}
}

func accessAttrs(r *http.Request, tap *errorTap, trace *requestTrace, reqID string, took time.Duration) []any {
	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", tap.Status(),
		"bytes", tap.BytesWritten(),
		"duration_ms", took.Milliseconds(),
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
	}
	if reqID != "" {
		attrs = append(attrs, "request_id", reqID)
	}
	// Route params are resolved by the time the handler returns.
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			attrs = append(attrs, "route", pattern)
		}
		if id := rctx.URLParam("bookingID"); id != "" {
			attrs = append(attrs, "booking_id", id)
		}
	}
	if trace.callerID != uuid.Nil {
		attrs = append(attrs, "caller_id", trace.callerID.String(), "role", trace.role)
	}
	if msg := tap.errorMessage(); msg != "" {
		attrs = append(attrs, "error", msg)
	}
	return attrs
}

func accessLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
