package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/service"
	"github.com/phrazzld/folio-api/internal/store"
)

// PostHandler serves the /api/posts endpoints.
type PostHandler struct {
	posts  service.PostService
	logger *slog.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts service.PostService, logger *slog.Logger) *PostHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for PostHandler")
	}
	return &PostHandler{posts: posts, logger: logger.With(slog.String("component", "post_handler"))}
}

func postsToResponse(posts []*domain.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, postToResponse(p))
	}
	return out
}

// scopeFilter limits what a listing may return. Moderators see everything;
// others see published posts plus their own posts in any status.
func scopeFilter(actor service.Actor, f store.PostFilter) store.PostFilter {
	if actor.IsModerator() {
		f.IncludeFlagged = true
		return f
	}
	own := f.AuthorID != nil && *f.AuthorID == actor.ID
	if own {
		f.IncludeFlagged = true
		return f
	}
	f.Status = domain.PostStatusPublished
	return f
}

// ListPosts handles GET /api/posts.
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var (
		page PaginationQuery
		q    PostListQuery
	)
	if !bindListQuery(w, r, &page, &q) {
		return
	}
	if q.Status != "" && q.Status != string(domain.PostStatusPublished) &&
		!actor.IsModerator() && (q.AuthorID == nil || *q.AuthorID != actor.ID) {
		HandleAPIError(w, r, service.ErrModeratorRequired, "")
		return
	}

	posts, total, err := h.posts.List(r.Context(), scopeFilter(actor, q.Filter()), page.StorePage())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list posts")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewPaginatedResponse(postsToResponse(posts), total, page))
}

// CreatePost handles POST /api/posts.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	var req PostCreateRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.posts.Create(r.Context(), actor, req.Input())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create post")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, postToResponse(post))
}

// GetPost handles GET /api/posts/{id}.
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	post, err := h.posts.Get(r.Context(), id)
	h.respondWithPost(w, r, actor, post, err)
}

// GetPostBySlug handles GET /api/posts/slug/{slug}.
func (h *PostHandler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	post, err := h.posts.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	h.respondWithPost(w, r, actor, post, err)
}

func (h *PostHandler) respondWithPost(w http.ResponseWriter, r *http.Request, actor service.Actor, post *domain.Post, err error) {
	if err == nil && !actor.CanView(post) {
		err = store.ErrPostNotFound
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve post")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, postToResponse(post))
}

// UpdatePost handles PATCH /api/posts/{id}.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req PostUpdateRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.posts.Update(r.Context(), actor, id, req.Patch())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update post")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, postToResponse(post))
}

// DeletePost handles DELETE /api/posts/{id}.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.posts.Delete(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete post")
		return
	}
	shared.RespondNoContent(w)
}
