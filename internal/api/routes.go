package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/folio-api/internal/api/middleware"
	"github.com/phrazzld/folio-api/internal/domain"
)

// Handlers groups every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	Users        *UserHandler
	Admin        *AdminHandler
	Posts        *PostHandler
	Comments     *CommentHandler
	Categories   *CategoryHandler
	Integrations *IntegrationHandler
}

// RouteOptions carries the middleware RegisterRoutes wraps around groups.
// Nil entries are skipped.
type RouteOptions struct {
	// Authenticate guards every route outside /api/auth and health.
	Authenticate func(http.Handler) http.Handler
	// AuthLimit applies a stricter limit to the /api/auth routes.
	AuthLimit func(http.Handler) http.Handler
}

func use(r chi.Router, mw func(http.Handler) http.Handler) {
	if mw != nil {
		r.Use(mw)
	}
}

// RegisterRoutes mounts the health checks and the /api tree on r.
func RegisterRoutes(r chi.Router, h Handlers, opts RouteOptions) {
	r.Get("/health", h.Health.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health.Health)

		r.Route("/auth", func(r chi.Router) {
			use(r, opts.AuthLimit)
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/refresh", h.Auth.RefreshToken)
			r.Post("/password/forgot", h.Auth.ForgotPassword)
			r.Post("/password/reset", h.Auth.ResetPassword)
			r.Post("/verify-email", h.Auth.VerifyEmail)
		})

		r.Group(func(r chi.Router) {
			use(r, opts.Authenticate)
			adminOnly := middleware.RequireRole(domain.RoleAdmin)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", h.Users.Me)
				r.Put("/password", h.Users.ChangePassword)
				r.Post("/verify-email", h.Users.RequestVerification)
				r.Get("/settings", h.Users.GetSettings)
				r.Put("/settings", h.Users.UpdateSettings)

				r.Get("/api-keys", h.Integrations.ListAPIKeys)
				r.Post("/api-keys", h.Integrations.CreateAPIKey)
				r.Delete("/api-keys/{id}", h.Integrations.RevokeAPIKey)

				r.Get("/webhooks", h.Integrations.ListWebhooks)
				r.Post("/webhooks", h.Integrations.CreateWebhook)
				r.Delete("/webhooks/{id}", h.Integrations.DeleteWebhook)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.Users.ListUsers)
				r.Get("/{id}", h.Users.GetUser)
				r.Patch("/{id}", h.Users.UpdateUser)
				r.Post("/{id}/avatar", h.Users.UploadAvatar)

				r.Group(func(r chi.Router) {
					r.Use(adminOnly)
					r.Post("/", h.Users.CreateUser)
					r.Post("/batch", h.Users.BatchCreateUsers)
					r.Get("/stats", h.Users.Stats)
					r.Delete("/{id}", h.Users.DeleteUser)
					r.Post("/{id}/activate", h.Users.ActivateUser)
					r.Post("/{id}/deactivate", h.Users.DeactivateUser)
					r.Put("/{id}/role", h.Users.UpdateRole)
					r.Post("/{id}/ban", h.Users.BanUser)
					r.Delete("/{id}/ban", h.Users.UnbanUser)
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.With(adminOnly).Post("/roles", h.Admin.UpdateRole)
				r.With(adminOnly).Post("/bans", h.Admin.BanUser)
				r.With(adminOnly).Delete("/bans/{user_id}", h.Admin.UnbanUser)
				r.With(middleware.RequireRole(domain.RoleModerator, domain.RoleAdmin)).
					Post("/moderation", h.Admin.Moderate)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", h.Posts.ListPosts)
				r.Post("/", h.Posts.CreatePost)
				r.Get("/slug/{slug}", h.Posts.GetPostBySlug)
				r.Get("/{id}", h.Posts.GetPost)
				r.Patch("/{id}", h.Posts.UpdatePost)
				r.Delete("/{id}", h.Posts.DeletePost)
				r.Get("/{id}/comments", h.Comments.ListComments)
			})

			r.Post("/comments", h.Comments.CreateComment)
			r.Delete("/comments/{id}", h.Comments.DeleteComment)

			r.Get("/categories", h.Categories.ListCategories)
			r.Post("/categories", h.Categories.CreateCategory)
		})
	})
}
