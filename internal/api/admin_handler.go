package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/platform/logger"
	"github.com/phrazzld/folio-api/internal/service"
	"github.com/phrazzld/folio-api/internal/validation"
)

// AdminHandler serves the /api/admin endpoints, which name the target user
// in the request body rather than the path.
type AdminHandler struct {
	users      *UserHandler
	moderation service.ModerationService
	logger     *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(users *UserHandler, moderation service.ModerationService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AdminHandler")
	}
	return &AdminHandler{
		users:      users,
		moderation: moderation,
		logger:     logger.With(slog.String("component", "admin_handler")),
	}
}

func bodyUserID(w http.ResponseWriter, r *http.Request, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if raw == "" || err != nil {
		shared.RespondWithValidationError(w, r, validation.Errors{
			{Field: "user_id", Message: "must be a valid UUID", Type: "uuid"},
		})
		return uuid.Nil, false
	}
	return id, true
}

// UpdateRole handles POST /api/admin/roles.
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req RoleUpdateRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}
	id, ok := bodyUserID(w, r, req.UserID)
	if !ok {
		return
	}
	h.users.updateRole(w, r, actor, id, req.Role)
}

// BanUser handles POST /api/admin/bans.
func (h *AdminHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req BanRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}
	id, ok := bodyUserID(w, r, req.UserID)
	if !ok {
		return
	}
	h.users.ban(w, r, actor, id, req)
}

// UnbanUser handles DELETE /api/admin/bans/{user_id}.
func (h *AdminHandler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "user_id", h.logger)
	if !ok {
		return
	}
	h.users.unban(w, r, actor, id)
}

// Moderate handles POST /api/admin/moderation.
func (h *AdminHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req ModerationRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.moderation.Moderate(r.Context(), actor, req.Input())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to moderate content")
		return
	}
	logger.FromContextOrDefault(r.Context(), h.logger).Info("moderation applied",
		"content_id", result.ContentID, "action", result.Action, "moderator_id", actor.ID)
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
