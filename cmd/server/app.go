package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/config"
	"github.com/phrazzld/folio-api/internal/events"
	"github.com/phrazzld/folio-api/internal/platform/mail"
	"github.com/phrazzld/folio-api/internal/platform/postgres"
	"github.com/phrazzld/folio-api/internal/platform/redis"
	"github.com/phrazzld/folio-api/internal/platform/storage"
	"github.com/phrazzld/folio-api/internal/platform/webhook"
	"github.com/phrazzld/folio-api/internal/ratelimit"
	"github.com/phrazzld/folio-api/internal/service"
	"github.com/phrazzld/folio-api/internal/service/auth"
	"github.com/phrazzld/folio-api/internal/store"
	"github.com/phrazzld/folio-api/internal/task"
)

// rateLimitKeyPrefix namespaces limiter keys in a shared Redis.
const rateLimitKeyPrefix = "folio:ratelimit:"

// application holds the shared dependencies and releases them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore     store.UserStore
	postStore     store.PostStore
	commentStore  store.CommentStore
	categoryStore store.CategoryStore
	apiKeyStore   store.APIKeyStore
	webhookStore  store.WebhookStore
	taskStore     task.TaskStore

	jwtService auth.JWTService
	hasher     auth.PasswordHasher
	mailer     mail.Sender
	objects    storage.Storage

	accountService    service.AccountService
	userService       service.UserService
	postService       service.PostService
	commentService    service.CommentService
	categoryService   service.CategoryService
	moderationService service.ModerationService
	apiKeyService     service.APIKeyService
	webhookService    service.WebhookService

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner

	redisClient *goredis.Client
	memoryStore *ratelimit.MemoryStore
	limiter     ratelimit.Limiter
	authLimiter ratelimit.Limiter
}

// newApplication wires stores, services and background workers on top of
// an open database.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	shared.SetExposeInternalErrors(cfg.Server.Debug)

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)
	app.hasher = auth.NewBcryptHasher(cfg.Auth.BCryptCost)

	app.userStore = postgres.NewPostgresUserStore(db)
	app.postStore = postgres.NewPostgresPostStore(db)
	app.commentStore = postgres.NewPostgresCommentStore(db)
	app.categoryStore = postgres.NewPostgresCategoryStore(db)
	app.apiKeyStore = postgres.NewPostgresAPIKeyStore(db)
	app.webhookStore = postgres.NewPostgresWebhookStore(db)
	app.taskStore = postgres.NewPostgresTaskStore(db)

	if app.mailer, err = setupMailer(cfg.Mail, logger); err != nil {
		return nil, err
	}
	if app.objects, err = setupStorage(ctx, cfg.Storage); err != nil {
		return nil, err
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	if err := app.setupServices(); err != nil {
		return nil, err
	}
	if err := app.setupTaskRunner(ctx); err != nil {
		app.cleanup()
		return nil, err
	}
	if err := app.setupRateLimiters(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

func (app *application) setupServices() error {
	var err error
	app.accountService, err = service.NewAccountService(
		app.userStore,
		app.hasher,
		app.jwtService,
		app.mailer,
		app.eventEmitter,
		service.AccountConfig{PublicBaseURL: app.config.Server.PublicBaseURL},
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create account service: %w", err)
	}

	app.userService = service.NewUserService(app.userStore, app.db, app.hasher, app.objects, app.logger)
	app.postService = service.NewPostService(app.postStore, app.categoryStore, app.eventEmitter, app.logger)
	app.commentService = service.NewCommentService(app.commentStore, app.postStore, app.eventEmitter, app.logger)
	app.categoryService = service.NewCategoryService(app.categoryStore, app.logger)
	app.moderationService = service.NewModerationService(
		app.postStore,
		app.commentStore,
		app.userStore,
		app.mailer,
		app.eventEmitter,
		app.logger,
	)
	app.apiKeyService = service.NewAPIKeyService(app.apiKeyStore, app.userStore, app.hasher, app.logger)
	app.webhookService = service.NewWebhookService(app.webhookStore, app.logger)
	return nil
}

// setupTaskRunner starts the webhook delivery workers and subscribes them
// to domain events.
func (app *application) setupTaskRunner(ctx context.Context) error {
	tc := app.config.Task
	client := webhook.NewClient(webhook.Config{
		Timeout:    time.Duration(tc.WebhookTimeoutSeconds) * time.Second,
		MaxRetries: tc.WebhookMaxRetries,
		UserAgent:  "folio-api/" + app.config.Server.Version,
	})

	registry := task.NewRegistry()
	factory := task.NewWebhookDeliveryTaskFactory(app.webhookStore, client, app.logger)
	factory.Register(registry)

	runnerCfg := task.DefaultTaskRunnerConfig()
	runnerCfg.WorkerCount = tc.WorkerCount
	runnerCfg.QueueSize = tc.QueueSize
	runnerCfg.StuckTaskAge = time.Duration(tc.StuckTaskAgeMinutes) * time.Minute

	app.taskRunner = task.NewTaskRunner(app.taskStore, registry, runnerCfg, app.logger)
	if err := app.taskRunner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	if err := app.taskRunner.Recover(ctx); err != nil {
		app.logger.Error("failed to recover pending tasks", "error", err)
	}

	app.eventEmitter.RegisterHandler(
		task.NewWebhookEventHandler(app.webhookStore, factory, app.taskRunner, app.logger),
	)
	app.logger.Info("Task runner started",
		"workers", runnerCfg.WorkerCount,
		"queue_size", runnerCfg.QueueSize)
	return nil
}

// setupRateLimiters builds the global sliding window on the configured
// backend and the per-IP token bucket for /api/auth.
func (app *application) setupRateLimiters(ctx context.Context) error {
	rl := app.config.RateLimit

	var backend ratelimit.Store
	switch rl.Backend {
	case "redis":
		client, err := redis.Connect(ctx, redis.Config{
			URL:            app.config.Redis.URL,
			ConnectTimeout: app.config.Redis.ConnectTimeout,
			RetryAttempts:  app.config.Redis.RetryAttempts,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.redisClient = client
		backend = ratelimit.NewRedisStore(client, rateLimitKeyPrefix)
	default:
		app.memoryStore = ratelimit.NewMemoryStore(rl.Window)
		backend = app.memoryStore
	}

	var err error
	app.limiter, err = ratelimit.NewSlidingWindow(backend, rl.RequestsPerMinute, rl.Window)
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}

	app.authLimiter, err = ratelimit.NewTokenBucket(app.config.Auth.LoginRatePerMinute, app.config.Auth.LoginBurst, 10*time.Minute)
	if err != nil {
		return fmt.Errorf("failed to create auth rate limiter: %w", err)
	}

	app.logger.Info("Rate limiting configured",
		"enabled", rl.Enabled,
		"backend", rl.Backend,
		"requests_per_minute", rl.RequestsPerMinute)
	return nil
}

func setupMailer(cfg config.MailConfig, logger *slog.Logger) (mail.Sender, error) {
	if cfg.Backend != "postmark" {
		return mail.NewLogSender(logger), nil
	}
	sender, err := mail.NewPostmarkSender(cfg.PostmarkToken, cfg.From)
	if err != nil {
		return nil, fmt.Errorf("failed to create postmark sender: %w", err)
	}
	return sender, nil
}

func setupStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	if cfg.Backend == "s3" {
		s, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			ForcePathStyle:  cfg.S3ForcePathStyle,
			BaseURL:         cfg.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 storage: %w", err)
		}
		return s, nil
	}
	s, err := storage.NewLocalStorage(cfg.LocalDir, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create local storage: %w", err)
	}
	return s, nil
}

// Run serves HTTP until ctx is cancelled or a shutdown signal arrives.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases resources in reverse order of acquisition.
func (app *application) cleanup() {
	var errs []error
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.memoryStore != nil {
		errs = append(errs, app.memoryStore.Close())
	}
	if app.redisClient != nil {
		errs = append(errs, app.redisClient.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error("Error releasing resources", "error", err)
	}

	app.logger.Info("Application shutdown completed")
}
