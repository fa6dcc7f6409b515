package middleware

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/phrazzld/folio-api/internal/api/shared"
)

// SecurityHeaders sets the standard hardening headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsHeaders = strings.Join([]string{
		"Authorization", "Content-Type", APIKeyHeader, RequestIDHeader,
	}, ", ")
	corsExpose = strings.Join([]string{
		RequestIDHeader, "Retry-After", "X-RateLimit-Limit",
		"X-RateLimit-Remaining", "X-RateLimit-Reset", "Server-Timing",
	}, ", ")
)

// CORS allows credentialed cross-origin requests from allowedOrigins. A
// "*" entry allows any origin; the request origin is echoed back since
// browsers reject a wildcard with credentials. Preflight requests end
// here with 204.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	anyOrigin := slices.Contains(allowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")

			if origin != "" && (anyOrigin || slices.Contains(allowedOrigins, origin)) {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				h.Set("Access-Control-Expose-Headers", corsExpose)
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MaintenanceResponse is the body of a 503 maintenance response.
type MaintenanceResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Maintenance answers 503 to everything but health checks while enabled
// returns true.
func Maintenance(enabled func() bool, message string) func(http.Handler) http.Handler {
	if message == "" {
		message = "The service is temporarily unavailable. Please try again later."
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if enabled() && !IsHealthPath(r.URL.Path) {
				w.Header().Set("Retry-After", "60")
				shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, MaintenanceResponse{
					Error:   "Service under maintenance",
					Message: message,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// timingWriter stamps Server-Timing just before the header is written.
type timingWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (tw *timingWriter) WriteHeader(code int) {
	if !tw.wroteHeader {
		tw.wroteHeader = true
		ms := float64(time.Since(tw.start).Microseconds()) / 1000
		tw.Header().Set("Server-Timing", fmt.Sprintf("total;dur=%.2f", ms))
	}
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timingWriter) Write(b []byte) (int, error) {
	if !tw.wroteHeader {
		tw.WriteHeader(http.StatusOK)
	}
	return tw.ResponseWriter.Write(b)
}

func (tw *timingWriter) Unwrap() http.ResponseWriter {
	return tw.ResponseWriter
}

// ServerTiming reports the handler time in a Server-Timing header.
func ServerTiming(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&timingWriter{ResponseWriter: w, start: time.Now()}, r)
	})
}
