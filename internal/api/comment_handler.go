package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/service"
)

// CommentHandler serves comment endpoints.
type CommentHandler struct {
	comments service.CommentService
	logger   *slog.Logger
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(comments service.CommentService, logger *slog.Logger) *CommentHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CommentHandler")
	}
	return &CommentHandler{comments: comments, logger: logger.With(slog.String("component", "comment_handler"))}
}

// ListComments handles GET /api/posts/{id}/comments.
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	actor, postID, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var page PaginationQuery
	if !bindListQuery(w, r, &page) {
		return
	}

	comments, total, err := h.comments.ListForPost(r.Context(), actor, postID, page.StorePage())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list comments")
		return
	}
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentToResponse(c))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewPaginatedResponse(out, total, page))
}

// CreateComment handles POST /api/comments.
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req CommentCreateRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	comment, err := h.comments.Create(r.Context(), actor, req.PostID, req.ParentID, req.Content)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create comment")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, commentToResponse(comment))
}

// DeleteComment handles DELETE /api/comments/{id}.
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.comments.Delete(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete comment")
		return
	}
	shared.RespondNoContent(w)
}
