package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Storage   StorageConfig   `mapstructure:"storage" validate:"required"`
	Mail      MailConfig      `mapstructure:"mail" validate:"required"`
	Task      TaskConfig      `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	Version  string `mapstructure:"version" validate:"required"`

	// Debug exposes raw error text in 500 responses. Never enable in production.
	Debug bool `mapstructure:"debug"`

	MaintenanceMode    bool   `mapstructure:"maintenance_mode"`
	MaintenanceMessage string `mapstructure:"maintenance_message"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
	// PublicBaseURL is used to build absolute links in outgoing mail.
	PublicBaseURL string `mapstructure:"public_base_url" validate:"omitempty,url"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret" validate:"required,min=32"`
	BCryptCost                  int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"gt=0"`
	// RememberMeLifetimeMinutes replaces the refresh lifetime when a login sets remember_me.
	RememberMeLifetimeMinutes int `mapstructure:"remember_me_lifetime_minutes" validate:"gt=0"`
	// LoginBurst and LoginRatePerMinute configure the per-IP token bucket on /auth endpoints.
	LoginRatePerMinute int `mapstructure:"login_rate_per_minute" validate:"gt=0"`
	LoginBurst         int `mapstructure:"login_burst" validate:"gt=0"`
}

// RateLimitConfig controls the global per-client sliding-window limiter.
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"gt=0"`
	Window            time.Duration `mapstructure:"window" validate:"gt=0"`
	// Backend selects where request timestamps live: "memory" or "redis".
	Backend string `mapstructure:"backend" validate:"oneof=memory redis"`
	// FailOpen admits requests when the backend errors.
	FailOpen bool `mapstructure:"fail_open"`
}

// RedisConfig is only required when RateLimit.Backend is "redis".
type RedisConfig struct {
	URL            string        `mapstructure:"url" validate:"omitempty,url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts" validate:"gte=0"`
}

// StorageConfig selects the avatar object store.
type StorageConfig struct {
	Backend  string `mapstructure:"backend" validate:"oneof=local s3"`
	LocalDir string `mapstructure:"local_dir"`
	BaseURL  string `mapstructure:"base_url" validate:"required,url"`

	S3Bucket         string `mapstructure:"s3_bucket"`
	S3Region         string `mapstructure:"s3_region"`
	S3Endpoint       string `mapstructure:"s3_endpoint" validate:"omitempty,url"`
	S3AccessKeyID    string `mapstructure:"s3_access_key_id"`
	S3SecretKey      string `mapstructure:"s3_secret_access_key"`
	S3ForcePathStyle bool   `mapstructure:"s3_force_path_style"`
}

// MailConfig selects how transactional email is delivered.
type MailConfig struct {
	Backend       string `mapstructure:"backend" validate:"oneof=log postmark"`
	From          string `mapstructure:"from" validate:"required,email"`
	PostmarkToken string `mapstructure:"postmark_server_token"`
}

// TaskConfig contains settings for the background task runner that
// delivers webhooks.
type TaskConfig struct {
	WorkerCount           int `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize             int `mapstructure:"queue_size" validate:"gt=0"`
	StuckTaskAgeMinutes   int `mapstructure:"stuck_task_age_minutes" validate:"gt=0"`
	WebhookTimeoutSeconds int `mapstructure:"webhook_timeout_seconds" validate:"gt=0"`
	WebhookMaxRetries     int `mapstructure:"webhook_max_retries" validate:"gte=0"`
}
