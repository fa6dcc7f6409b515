package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/folio-api/internal/api"
	apiMiddleware "github.com/phrazzld/folio-api/internal/api/middleware"
	"github.com/phrazzld/folio-api/internal/platform/storage"
)

// uploadsPath is where the local storage backend's files are served.
const uploadsPath = "/uploads"

func isUploadPath(path string) bool {
	return strings.HasPrefix(path, uploadsPath+"/")
}

// setupRouter builds the middleware chain and mounts every API route.
func (app *application) setupRouter() http.Handler {
	cfg := app.config
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.Server.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(apiMiddleware.CORS(cfg.Server.CORSAllowedOrigins))
	r.Use(middleware.Compress(5))
	r.Use(apiMiddleware.Maintenance(
		func() bool { return cfg.Server.MaintenanceMode },
		cfg.Server.MaintenanceMessage,
	))
	r.Use(apiMiddleware.SecurityHeaders)
	if cfg.RateLimit.Enabled && app.limiter != nil {
		r.Use(apiMiddleware.RateLimit(
			app.limiter,
			cfg.RateLimit.RequestsPerMinute,
			apiMiddleware.WithFailOpen(cfg.RateLimit.FailOpen),
			apiMiddleware.WithSkip(func(r *http.Request) bool {
				return apiMiddleware.IsHealthPath(r.URL.Path) || isUploadPath(r.URL.Path)
			}),
		))
	}
	r.Use(apiMiddleware.ServerTiming)
	r.Use(apiMiddleware.TraceMiddleware)
	r.Use(apiMiddleware.RequestLogger(app.logger))
	r.Use(apiMiddleware.Recoverer(cfg.Server.Debug))

	users := api.NewUserHandler(app.userService, app.accountService, app.logger)
	handlers := api.Handlers{
		Health:       api.NewHealthHandler(cfg.Server.Version),
		Auth:         api.NewAuthHandler(app.accountService, app.jwtService, app.logger),
		Users:        users,
		Admin:        api.NewAdminHandler(users, app.moderationService, app.logger),
		Posts:        api.NewPostHandler(app.postService, app.logger),
		Comments:     api.NewCommentHandler(app.commentService, app.logger),
		Categories:   api.NewCategoryHandler(app.categoryService, app.logger),
		Integrations: api.NewIntegrationHandler(app.apiKeyService, app.webhookService, app.logger),
	}

	opts := api.RouteOptions{
		Authenticate: apiMiddleware.NewAuthMiddleware(app.jwtService, app.accountService, app.apiKeyService, app.logger).Authenticate,
	}
	if app.authLimiter != nil {
		opts.AuthLimit = apiMiddleware.RateLimit(app.authLimiter, cfg.Auth.LoginRatePerMinute)
	}

	api.RegisterRoutes(r, handlers, opts)
	if local, ok := app.objects.(*storage.LocalStorage); ok {
		r.Handle(uploadsPath+"/*", serveUploads(local.Dir()))
	}
	return r
}

// serveUploads serves stored objects without authentication. Directory
// listings answer 404.
func serveUploads(dir string) http.Handler {
	files := http.StripPrefix(uploadsPath, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
