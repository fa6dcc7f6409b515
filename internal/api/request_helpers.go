package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/platform/logger"
	"github.com/phrazzld/folio-api/internal/service"
	"github.com/phrazzld/folio-api/internal/validation"
)

// getActor returns the authenticated caller as a service.Actor. The
// principal is placed in the context by the authentication middleware.
func getActor(r *http.Request) (service.Actor, bool) {
	p, ok := shared.GetPrincipal(r.Context())
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{ID: p.UserID, Role: p.Role}, true
}

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, validation.Errors{{Field: paramName, Message: "field required", Type: "required"}}
	}
	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, validation.Errors{{Field: paramName, Message: "must be a valid UUID", Type: "uuid"}}
	}
	return id, nil
}

// requireActor writes a 401 when the request is unauthenticated.
func requireActor(w http.ResponseWriter, r *http.Request, log *slog.Logger) (service.Actor, bool) {
	actor, ok := getActor(r)
	if !ok {
		logger.FromContextOrDefault(r.Context(), log).Warn("principal not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return service.Actor{}, false
	}
	return actor, true
}

// handleActorAndPathUUID extracts both the caller and a UUID path
// parameter, writing an error response if either is missing or invalid.
func handleActorAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (service.Actor, uuid.UUID, bool) {
	actor, ok := requireActor(w, r, log)
	if !ok {
		return service.Actor{}, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), log).Debug("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return service.Actor{}, uuid.Nil, false
	}
	return actor, pathID, true
}
