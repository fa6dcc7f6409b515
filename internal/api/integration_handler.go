package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/platform/logger"
	"github.com/phrazzld/folio-api/internal/service"
)

// IntegrationHandler serves a user's API keys and webhooks under /api/me.
type IntegrationHandler struct {
	keys   service.APIKeyService
	hooks  service.WebhookService
	logger *slog.Logger
}

// NewIntegrationHandler creates a new IntegrationHandler.
func NewIntegrationHandler(keys service.APIKeyService, hooks service.WebhookService, logger *slog.Logger) *IntegrationHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for IntegrationHandler")
	}
	return &IntegrationHandler{
		keys:   keys,
		hooks:  hooks,
		logger: logger.With(slog.String("component", "integration_handler")),
	}
}

// ListAPIKeys handles GET /api/me/api-keys.
func (h *IntegrationHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	keys, err := h.keys.List(r.Context(), actor.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list API keys")
		return
	}
	out := make([]APIKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, apiKeyToResponse(k))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// CreateAPIKey handles POST /api/me/api-keys. The plaintext key appears
// only in this response.
func (h *IntegrationHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req APIKeyCreateRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	key, raw, err := h.keys.Create(r.Context(), actor.ID, service.APIKeyInput{
		Name:      req.Name,
		Scopes:    req.Scopes,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create API key")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, CreatedAPIKeyResponse{
		APIKeyResponse: apiKeyToResponse(key),
		Key:            raw,
	})
}

// RevokeAPIKey handles DELETE /api/me/api-keys/{id}.
func (h *IntegrationHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.keys.Revoke(r.Context(), actor.ID, id); err != nil {
		HandleAPIError(w, r, err, "Failed to revoke API key")
		return
	}
	shared.RespondNoContent(w)
}

// ListWebhooks handles GET /api/me/webhooks.
func (h *IntegrationHandler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	hooks, err := h.hooks.List(r.Context(), actor.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list webhooks")
		return
	}
	out := make([]WebhookResponse, 0, len(hooks))
	for _, hook := range hooks {
		out = append(out, webhookToResponse(hook))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// CreateWebhook handles POST /api/me/webhooks.
func (h *IntegrationHandler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req WebhookCreateRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	active := req.Active == nil || *req.Active
	hook, err := h.hooks.Create(r.Context(), actor.ID, service.WebhookInput{
		URL:    req.URL,
		Events: req.Events,
		Secret: req.Secret,
		Active: active,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create webhook")
		return
	}
	logger.FromContextOrDefault(r.Context(), h.logger).Info("webhook registered",
		"user_id", actor.ID, "webhook_id", hook.ID)
	shared.RespondWithJSON(w, r, http.StatusCreated, webhookToResponse(hook))
}

// DeleteWebhook handles DELETE /api/me/webhooks/{id}.
func (h *IntegrationHandler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.hooks.Delete(r.Context(), actor.ID, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete webhook")
		return
	}
	shared.RespondNoContent(w)
}
