package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. FOLIO_SERVER_PORT or FOLIO_DATABASE_URL.
const EnvPrefix = "FOLIO"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// A .env file in the working directory is read first; variables that are
// already set in the process environment are never overridden by it.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to Unmarshal unless bound explicitly.
	for _, key := range []string{
		"database.url",
		"auth.jwt_secret",
		"redis.url",
		"storage.s3_bucket",
		"storage.s3_region",
		"storage.s3_endpoint",
		"storage.s3_access_key_id",
		"storage.s3_secret_access_key",
		"mail.postmark_server_token",
		"server.public_base_url",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.version", "1.0.0")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.maintenance_mode", false)
	v.SetDefault("server.trust_proxy_headers", false)
	v.SetDefault("server.maintenance_message", "")
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:3000", "http://localhost:8080"})

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)
	v.SetDefault("auth.remember_me_lifetime_minutes", 43200)
	v.SetDefault("auth.login_rate_per_minute", 10)
	v.SetDefault("auth.login_burst", 5)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 100)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.fail_open", true)

	v.SetDefault("redis.connect_timeout", 30*time.Second)
	v.SetDefault("redis.retry_attempts", 3)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_dir", "uploads")
	v.SetDefault("storage.base_url", "http://localhost:8080/uploads")
	v.SetDefault("storage.s3_force_path_style", false)

	v.SetDefault("mail.backend", "log")
	v.SetDefault("mail.from", "no-reply@folio.local")

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age_minutes", 30)
	v.SetDefault("task.webhook_timeout_seconds", 10)
	v.SetDefault("task.webhook_max_retries", 3)
}

// Validate checks struct tags and the rules that span several groups,
// such as a redis URL being present when the redis limiter is selected.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.RateLimit.Backend == "redis" && c.Redis.URL == "" {
		return errors.New("config validation failed: redis.url is required when rate_limit.backend is redis")
	}
	if c.Storage.Backend == "s3" && (c.Storage.S3Bucket == "" || c.Storage.S3Region == "") {
		return errors.New("config validation failed: storage.s3_bucket and storage.s3_region are required when storage.backend is s3")
	}
	if c.Mail.Backend == "postmark" && c.Mail.PostmarkToken == "" {
		return errors.New("config validation failed: mail.postmark_server_token is required when mail.backend is postmark")
	}

	return nil
}
