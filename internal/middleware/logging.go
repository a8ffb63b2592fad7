// Package middleware holds HTTP middleware shared by every route.
//
// WHAT IS MIDDLEWARE?
// A middleware wraps an http.Handler and runs code before and after it:
//
//	func Example(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // before the handler
//	        next.ServeHTTP(w, r)
//	        // after the handler
//	    })
//	}
//
// chi runs the middlewares registered with router.Use from the outside in,
// so the first one registered sees every request first and finishes last.
//
// ORDER IN THIS APP:
//
//	RequestID → RealIP → Logger → Recoverer → auth.LoadSession → LogUser → route
//
// Logger sits outside Recoverer so a panic anywhere below it, session
// loading included, still produces a 500 and a log line. Because the
// session is resolved further in, the user id travels back up to Logger
// through LogUser instead of the request context.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/BSoup1/flashcards/internal/auth"
)

// statusRecorder remembers the status code and body size a handler wrote.
// http.ResponseWriter has no getter for either, so we wrap it.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.written += int64(n)
	return n, err
}

// requestFields collects values that inner middleware learn about a
// request and Logger reports once it completes. It is only touched by the
// goroutine serving the request.
type requestFields struct {
	userID string
}

type fieldsKey struct{}

// Logger logs one line per request with method, path, status, duration,
// bytes written, chi's request id and, when a session was resolved, the
// user id. Responses with a 5xx status are logged at Error level.
//
// Place it after chi's RequestID so the request id is available.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			fields := &requestFields{}
			r = r.WithContext(context.WithValue(r.Context(), fieldsKey{}, fields))

			next.ServeHTTP(rec, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", rec.written),
			}
			if id := chimiddleware.GetReqID(r.Context()); id != "" {
				attrs = append(attrs, slog.String("requestID", id))
			}
			userID := fields.userID
			if userID == "" {
				// set by an outer middleware, e.g. in tests
				userID, _ = auth.UserIDFromContext(r.Context())
			}
			if userID != "" {
				attrs = append(attrs, slog.String("userID", userID))
			}

			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "request completed", attrs...)
		})
	}
}

// LogUser hands the user id resolved by auth.LoadSession to the enclosing
// Logger. Place it right after LoadSession. Without a Logger around it,
// it does nothing.
func LogUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fields, ok := r.Context().Value(fieldsKey{}).(*requestFields); ok {
			if userID, ok := auth.UserIDFromContext(r.Context()); ok {
				fields.userID = userID
			}
		}
		next.ServeHTTP(w, r)
	})
}
