package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/platform/logger"
)

// RequestIDHeader echoes the request's trace ID back to the client.
const RequestIDHeader = "X-Request-ID"

// RequestLogger logs the start and end of every request and places a
// request-scoped logger in the context. It must run after TraceMiddleware.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			traceID := shared.GetTraceID(r.Context())

			log := base.With(
				slog.String("request_id", traceID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("client_host", clientHost(r)))
			log.Info("request_started")

			w.Header().Set(RequestIDHeader, traceID)
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := logger.WithLogger(r.Context(), log)

			defer func() {
				duration := float64(time.Since(start).Microseconds()) / 1000
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				if status >= http.StatusInternalServerError {
					log.Error("request_failed",
						slog.Int("status", status),
						slog.Float64("duration_ms", duration))
					return
				}
				log.Info("request_completed",
					slog.Int("status", status),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Float64("duration_ms", duration))
			}()

			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}

// clientHost returns the host part of RemoteAddr, which chi's RealIP may
// already have replaced with a forwarded address.
func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
