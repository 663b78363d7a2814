package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
)

// DefaultMongoURI is used when MONGODB_URI is unset.
const DefaultMongoURI = "mongodb://localhost:27017/students"

// DefaultDatabaseName is used when the URI carries no database path.
const DefaultDatabaseName = "students"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"3000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds MongoDB connection and retry settings.
type DatabaseConfig struct {
	URI                    string        `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017/students"`
	ServerSelectionTimeout time.Duration `envconfig:"DB_SERVER_SELECTION_TIMEOUT" default:"5s"`
	MaxRetries             int           `envconfig:"DB_MAX_RETRIES" default:"3"`
	RetryDelay             time.Duration `envconfig:"DB_RETRY_DELAY" default:"2s"`
	ReconnectDelay         time.Duration `envconfig:"DB_RECONNECT_DELAY" default:"5s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	// GlobalRequestsPerSecond caps the whole process; 0 disables the cap
	GlobalRequestsPerSecond int `envconfig:"RATE_LIMIT_GLOBAL_RPS" default:"0"`
	GlobalBurst             int `envconfig:"RATE_LIMIT_GLOBAL_BURST" default:"0"`
}

// CORSConfig holds allowed origins. "*" allows any origin.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			URI:                    DefaultMongoURI,
			ServerSelectionTimeout: 5 * time.Second,
			MaxRetries:             3,
			RetryDelay:             2 * time.Second,
			ReconnectDelay:         5 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.Database.MaxRetries < 1 {
		return fmt.Errorf("DB_MAX_RETRIES must be at least 1, got %d", c.Database.MaxRetries)
	}
	if c.Database.RetryDelay < 0 || c.Database.ReconnectDelay < 0 {
		return fmt.Errorf("database retry delays must not be negative")
	}
	if _, err := url.Parse(c.Database.URI); err != nil {
		return fmt.Errorf("invalid MONGODB_URI: %w", err)
	}
	if c.RateLimit.GlobalRequestsPerSecond < 0 || c.RateLimit.GlobalBurst < 0 {
		return fmt.Errorf("global rate limit settings must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

// GlobalEnabled reports whether the process-wide cap is on.
func (r RateLimitConfig) GlobalEnabled() bool {
	return r.Enabled && r.GlobalRequestsPerSecond > 0
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseName returns the database named by the URI path, or
// DefaultDatabaseName when the path is empty.
func (d DatabaseConfig) DatabaseName() string {
	u, err := url.Parse(d.URI)
	if err != nil {
		return DefaultDatabaseName
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return DefaultDatabaseName
	}
	return name
}
