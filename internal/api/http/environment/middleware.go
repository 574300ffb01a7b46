package environment

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/oshokin/site-environment/internal/logger"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter

	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// logMiddleware attaches the service logger to the request context and logs
// each request at debug level.
func logMiddleware(base context.Context) mux.MiddlewareFunc {
	l := logger.FromContext(base)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.ToContext(r.Context(), l)
			ctx = logger.WithKV(ctx, "method", r.Method, "path", r.URL.Path)

			// Hijacked websocket connections need the original writer.
			if r.URL.Path == "/stream" {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rec, r.WithContext(ctx))

			logger.DebugKV(ctx, "Request served", "status", rec.status, "duration", time.Since(start).String())
		})
	}
}

// recoverMiddleware turns handler panics into 500 responses.
func recoverMiddleware(base context.Context) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler { //nolint:errorlint,err113 // Sentinel panic value.
						panic(v)
					}

					logger.ErrorKV(base, "Handler panicked", "path", r.URL.Path, "panic", v)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
