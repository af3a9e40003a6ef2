// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Upload   UploadConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Export   ExportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// StoreConfig selects and configures the key-value store.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres, redis (default: sqlite)
	Driver string `env:"STORE_DRIVER" default:"sqlite"`

	// Timeout bounds a single store operation (default: 5s)
	Timeout time.Duration `env:"STORE_TIMEOUT" default:"5s"`

	// SQLitePath is the database file for the sqlite driver (default: orderease.db)
	SQLitePath string `env:"SQLITE_PATH" default:"orderease.db"`

	// DatabaseURL is the PostgreSQL connection string for the postgres driver.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// RedisAddr is host:port of the redis server (default: localhost:6379)
	RedisAddr string `env:"REDIS_ADDR" default:"localhost:6379"`

	// RedisPassword authenticates to redis
	RedisPassword string `env:"REDIS_PASSWORD"`

	// RedisDB is the redis database number (default: 0)
	RedisDB int `env:"REDIS_DB" default:"0"`

	// KeyPrefix namespaces keys in shared stores (default: orderease:)
	KeyPrefix string `env:"STORE_KEY_PREFIX" default:"orderease:"`
}

// UploadConfig holds spreadsheet upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum size of one file in bytes (default: 32MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"33554432"`

	// MaxFiles is the maximum number of files per request (default: 20)
	MaxFiles int `env:"UPLOAD_MAX_FILES" default:"20"`

	// MaxConcurrent is the maximum number of parallel parses (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a parse waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single file parse (default: 2m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"2m"`

	// MaxRows rejects sheets with more data rows; 0 disables the check (default: 0)
	MaxRows int `env:"UPLOAD_MAX_ROWS" default:"0"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	// CookieName is the session cookie (default: orderease_session)
	CookieName string `env:"SESSION_COOKIE_NAME" default:"orderease_session"`

	// CookieSecure marks the cookie Secure; enable behind HTTPS (default: false)
	CookieSecure bool `env:"SESSION_COOKIE_SECURE" default:"false"`

	// IdleTimeout drops pending orders of idle sessions (default: 2h)
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"2h"`

	// CheckInterval is how often idle sessions are swept (default: 10m)
	CheckInterval time.Duration `env:"SESSION_CHECK_INTERVAL" default:"10m"`
}

// RateLimitConfig holds rate limiting settings per client IP.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// UploadLimit is requests per minute for upload endpoints (default: 20)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects /api with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ExportConfig holds PDF export settings.
type ExportConfig struct {
	// FileName is the download name (default: orders.pdf)
	FileName string `env:"EXPORT_FILE_NAME" default:"orders.pdf"`

	// Title is printed above the table (default: Orders List)
	Title string `env:"EXPORT_TITLE" default:"Orders List"`

	// PageSize is A4, Letter or Legal (default: A4)
	PageSize string `env:"EXPORT_PAGE_SIZE" default:"A4"`

	// Optimize runs the document through pdfcpu before download (default: true)
	Optimize bool `env:"EXPORT_OPTIMIZE" default:"true"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
