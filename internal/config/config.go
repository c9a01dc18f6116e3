// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dajtovon/internal/ratelimit"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env            string `mapstructure:"APP_ENV"`
	Port           string `mapstructure:"PORT"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DBDriver                 string `mapstructure:"DB_DRIVER"`
	DBHost                   string `mapstructure:"DB_HOST"`
	DBPort                   string `mapstructure:"DB_PORT"`
	DBUser                   string `mapstructure:"DB_USER"`
	DBPassword               string `mapstructure:"DB_PASSWORD"`
	DBName                   string `mapstructure:"DB_NAME"`
	DBSSLMode                string `mapstructure:"DB_SSLMODE"`
	SQLitePath               string `mapstructure:"SQLITE_PATH"`
	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	StoreTimeoutMS           int    `mapstructure:"STORE_TIMEOUT_MS"`

	RedisURL             string `mapstructure:"REDIS_URL"`
	StatsCacheTTLSeconds int    `mapstructure:"STATS_CACHE_TTL_SECONDS"`

	WSMaxConnsPerUser int `mapstructure:"WS_MAX_CONNS_PER_USER"`

	RateLimitReactionMax             int `mapstructure:"RATE_LIMIT_REACTION_MAX"`
	RateLimitReactionWindowSeconds   int `mapstructure:"RATE_LIMIT_REACTION_WINDOW_SECONDS"`
	RateLimitCommentMax              int `mapstructure:"RATE_LIMIT_COMMENT_MAX"`
	RateLimitCommentWindowSeconds    int `mapstructure:"RATE_LIMIT_COMMENT_WINDOW_SECONDS"`
	RateLimitContactPageMax          int `mapstructure:"RATE_LIMIT_CONTACT_PAGE_MAX"`
	RateLimitContactPageWindowMin    int `mapstructure:"RATE_LIMIT_CONTACT_PAGE_WINDOW_MINUTES"`
	RateLimitContactAuthorMax        int `mapstructure:"RATE_LIMIT_CONTACT_AUTHOR_MAX"`
	RateLimitContactAuthorWindowMin  int `mapstructure:"RATE_LIMIT_CONTACT_AUTHOR_WINDOW_MINUTES"`
	RateLimitAuthMax                 int `mapstructure:"RATE_LIMIT_AUTH_MAX"`
	RateLimitAuthWindowSeconds       int `mapstructure:"RATE_LIMIT_AUTH_WINDOW_SECONDS"`
	RateLimitSweepSeconds            int `mapstructure:"RATE_LIMIT_SWEEP_SECONDS"`
	RateLimitIdleMultiple            int `mapstructure:"RATE_LIMIT_IDLE_MULTIPLE"`

	NotificationRetentionDays int `mapstructure:"NOTIFICATION_RETENTION_DAYS"`
	NotificationDefaultLimit  int `mapstructure:"NOTIFICATION_DEFAULT_LIMIT"`

	MailFrom       string `mapstructure:"MAIL_FROM"`
	MailTo         string `mapstructure:"MAIL_TO"`
	MailWebhookURL string `mapstructure:"MAIL_WEBHOOK_URL"`

	OTelExporter    string  `mapstructure:"OTEL_EXPORTER"`
	OTelEndpoint    string  `mapstructure:"OTEL_ENDPOINT"`
	OTelSampleRatio float64 `mapstructure:"OTEL_SAMPLE_RATIO"`
}

const defaultJWTSecret = "your-secret-key-change-in-production"

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.DBDriver = strings.ToLower(strings.TrimSpace(config.DBDriver))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "dajtovon")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "dajtovon.db")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	viper.SetDefault("STORE_TIMEOUT_MS", 5000)

	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("STATS_CACHE_TTL_SECONDS", 60)

	viper.SetDefault("WS_MAX_CONNS_PER_USER", 12)

	viper.SetDefault("RATE_LIMIT_REACTION_MAX", 60)
	viper.SetDefault("RATE_LIMIT_REACTION_WINDOW_SECONDS", 60)
	viper.SetDefault("RATE_LIMIT_COMMENT_MAX", 10)
	viper.SetDefault("RATE_LIMIT_COMMENT_WINDOW_SECONDS", 60)
	viper.SetDefault("RATE_LIMIT_CONTACT_PAGE_MAX", 3)
	viper.SetDefault("RATE_LIMIT_CONTACT_PAGE_WINDOW_MINUTES", 30)
	viper.SetDefault("RATE_LIMIT_CONTACT_AUTHOR_MAX", 3)
	viper.SetDefault("RATE_LIMIT_CONTACT_AUTHOR_WINDOW_MINUTES", 10)
	viper.SetDefault("RATE_LIMIT_AUTH_MAX", 10)
	viper.SetDefault("RATE_LIMIT_AUTH_WINDOW_SECONDS", 60)
	viper.SetDefault("RATE_LIMIT_SWEEP_SECONDS", 600)
	viper.SetDefault("RATE_LIMIT_IDLE_MULTIPLE", ratelimit.DefaultIdleMultiple)

	viper.SetDefault("NOTIFICATION_RETENTION_DAYS", 0)
	viper.SetDefault("NOTIFICATION_DEFAULT_LIMIT", 5)

	viper.SetDefault("MAIL_FROM", "noreply@dajtovon.sk")
	viper.SetDefault("MAIL_TO", "info@dajtovon.sk")
	viper.SetDefault("MAIL_WEBHOOK_URL", "")

	viper.SetDefault("OTEL_EXPORTER", "none")
	viper.SetDefault("OTEL_ENDPOINT", "localhost:4318")
	viper.SetDefault("OTEL_SAMPLE_RATIO", 1.0)
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.StoreTimeoutMS <= 0 {
		return errors.New("STORE_TIMEOUT_MS must be positive")
	}
	for name, p := range c.RateLimitPolicies() {
		if p.Max <= 0 || p.Window <= 0 {
			return fmt.Errorf("rate limit policy %q needs a positive max and window", name)
		}
	}
	if c.NotificationDefaultLimit <= 0 {
		return errors.New("NOTIFICATION_DEFAULT_LIMIT must be positive")
	}
	if c.NotificationRetentionDays < 0 {
		return errors.New("NOTIFICATION_RETENTION_DAYS cannot be negative")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBDriver == "postgres" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

// StoreTimeout bounds every store round trip made on behalf of a request.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// StatsCacheTTL is how long a content stats document stays cached.
func (c *Config) StatsCacheTTL() time.Duration {
	return time.Duration(c.StatsCacheTTLSeconds) * time.Second
}

// Rate limit policy names.
const (
	PolicyReaction      = "reaction"
	PolicyComment       = "comment"
	PolicyContactPage   = "contactPage"
	PolicyContactAuthor = "contact"
	PolicyAuth          = "auth"
)

// RateLimitPolicies returns every configured limiter policy keyed by name.
func (c *Config) RateLimitPolicies() map[string]ratelimit.Policy {
	policy := func(name string, max int, window time.Duration) ratelimit.Policy {
		return ratelimit.Policy{Name: name, Max: max, Window: window}
	}
	return map[string]ratelimit.Policy{
		PolicyReaction: policy(PolicyReaction, c.RateLimitReactionMax,
			time.Duration(c.RateLimitReactionWindowSeconds)*time.Second),
		PolicyComment: policy(PolicyComment, c.RateLimitCommentMax,
			time.Duration(c.RateLimitCommentWindowSeconds)*time.Second),
		PolicyContactPage: policy(PolicyContactPage, c.RateLimitContactPageMax,
			time.Duration(c.RateLimitContactPageWindowMin)*time.Minute),
		PolicyContactAuthor: policy(PolicyContactAuthor, c.RateLimitContactAuthorMax,
			time.Duration(c.RateLimitContactAuthorWindowMin)*time.Minute),
		PolicyAuth: policy(PolicyAuth, c.RateLimitAuthMax,
			time.Duration(c.RateLimitAuthWindowSeconds)*time.Second),
	}
}

// RateLimitSweepInterval is how often idle limiter buckets are evicted.
func (c *Config) RateLimitSweepInterval() time.Duration {
	return time.Duration(c.RateLimitSweepSeconds) * time.Second
}

// NotificationRetention is zero when notifications are kept forever.
func (c *Config) NotificationRetention() time.Duration {
	return time.Duration(c.NotificationRetentionDays) * 24 * time.Hour
}
