package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/platform/logger"
	"github.com/phrazzld/folio-api/internal/service"
	"github.com/phrazzld/folio-api/internal/store"
)

// avatarFormOverhead is the multipart framing allowed on top of the file.
const avatarFormOverhead = 1 << 20

// UserHandler serves the user management and /me endpoints.
type UserHandler struct {
	users    service.UserService
	accounts service.AccountService
	logger   *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, accounts service.AccountService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for UserHandler")
	}
	return &UserHandler{
		users:    users,
		accounts: accounts,
		logger:   logger.With(slog.String("component", "user_handler")),
	}
}

// CreateUser handles POST /api/users.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req UserCreateRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Create(r.Context(), actor, req.Input())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, userToResponse(user))
}

// ListUsers handles GET /api/users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var (
		page PaginationQuery
		q    UserListQuery
	)
	if !bindListQuery(w, r, &page, &q) {
		return
	}

	users, total, err := h.users.List(r.Context(), q.Filter(), page.StorePage())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewPaginatedResponse(usersToResponse(users), total, page))
}

// GetUser handles GET /api/users/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	_, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, fmt.Sprintf("User with ID %s not found", id))
			return
		}
		HandleAPIError(w, r, err, "Failed to retrieve user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// UpdateUser handles PATCH /api/users/{id}.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req UserUpdateRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Update(r.Context(), actor, id, req.Patch())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// DeleteUser handles DELETE /api/users/{id}.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}
	shared.RespondNoContent(w)
}

// BatchCreateUsers handles POST /api/users/batch.
func (h *UserHandler) BatchCreateUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req BatchCreateRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	inputs := make([]service.NewUserInput, 0, len(req.Users))
	for _, u := range req.Users {
		inputs = append(inputs, u.Input())
	}
	users, err := h.users.BatchCreate(r.Context(), actor, inputs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create users")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, usersToResponse(users))
}

// UploadAvatar handles POST /api/users/{id}/avatar with a multipart "file" field.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxAvatarSize+avatarFormOverhead)
	if err := r.ParseMultipartForm(service.MaxAvatarSize + avatarFormOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			HandleAPIError(w, r, service.ErrFileTooLarge, "")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Missing file field", err)
		return
	}
	defer file.Close()

	url, err := h.users.UploadAvatar(r.Context(), actor, id, service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to upload avatar")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, AvatarResponse{URL: url})
}

// ActivateUser handles POST /api/users/{id}/activate.
func (h *UserHandler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// DeactivateUser handles POST /api/users/{id}/deactivate.
func (h *UserHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *UserHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	user, err := h.users.SetActive(r.Context(), actor, id, active)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update user status")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// Stats handles GET /api/users/stats.
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	stats, err := h.users.Stats(r.Context(), actor)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute user statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, statsToResponse(stats))
}

// UpdateRole handles PUT /api/users/{id}/role.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req RoleUpdateRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}
	h.updateRole(w, r, actor, id, req.Role)
}

func (h *UserHandler) updateRole(w http.ResponseWriter, r *http.Request, actor service.Actor, id uuid.UUID, roleName string) {
	role, err := domain.ParseRole(roleName)
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %w", domain.ErrValidation, err), "")
		return
	}
	user, err := h.users.UpdateRole(r.Context(), actor, id, role)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update role")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// BanUser handles POST /api/users/{id}/ban.
func (h *UserHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req BanRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}
	h.ban(w, r, actor, id, req)
}

func (h *UserHandler) ban(w http.ResponseWriter, r *http.Request, actor service.Actor, id uuid.UUID, req BanRequest) {
	user, err := h.users.Ban(r.Context(), actor, id, req.Input())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to ban user")
		return
	}
	logger.FromContextOrDefault(r.Context(), h.logger).Info("user banned",
		"user_id", id, "admin_id", actor.ID, "permanent", req.Permanent)
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// UnbanUser handles DELETE /api/users/{id}/ban.
func (h *UserHandler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	h.unban(w, r, actor, id)
}

func (h *UserHandler) unban(w http.ResponseWriter, r *http.Request, actor service.Actor, id uuid.UUID) {
	user, err := h.users.Unban(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to unban user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// Me handles GET /api/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), actor.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// ChangePassword handles PUT /api/me/password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req PasswordChangeRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), actor.ID, req.CurrentPassword, req.NewPassword); err != nil {
		HandleAPIError(w, r, err, "Failed to change password")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Password changed"})
}

// RequestVerification handles POST /api/me/verify-email.
func (h *UserHandler) RequestVerification(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.accounts.RequestEmailVerification(r.Context(), actor.ID); err != nil {
		HandleAPIError(w, r, err, "Failed to send verification email")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, MessageResponse{Message: "Verification email sent"})
}

// GetSettings handles GET /api/me/settings.
func (h *UserHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	settings, err := h.users.GetSettings(r.Context(), actor, actor.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve settings")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/me/settings.
func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req SettingsRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}
	settings, err := h.users.UpdateSettings(r.Context(), actor, actor.ID, req.Settings())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update settings")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, settings)
}
