package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/platform/logger"
)

// Recoverer turns a panic in a handler into a 500 JSON envelope. With
// debug set the panic value is returned to the client.
func Recoverer(debugMode bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					// ALLOW-PANIC: net/http uses this sentinel to abort the response
					panic(rec)
				}

				logger.FromContextOrDefault(r.Context(), slog.Default()).Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())))

				message := "Internal server error"
				if debugMode {
					message = fmt.Sprint(rec)
				}
				shared.RespondWithError(w, r, http.StatusInternalServerError, message)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
