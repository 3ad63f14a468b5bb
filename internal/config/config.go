// Package config loads tablekit configuration from environment variables with
// defaults and validates it on startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Table    TableConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. When empty the server
	// serves the built-in demo datasets from memory.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// QueryTimeout bounds a single page or count query (default: 10s)
	QueryTimeout time.Duration `env:"DB_QUERY_TIMEOUT" default:"10s"`
}

// TableConfig holds the defaults applied to served tables.
type TableConfig struct {
	// DefaultPageSize must be one of PageSizes (default: 10)
	DefaultPageSize int `env:"TABLE_DEFAULT_PAGE_SIZE" default:"10"`

	// PageSizes is a comma-separated list of selectable page sizes
	PageSizes []int `env:"TABLE_PAGE_SIZES" default:"5,10,20,50,100"`

	// MaxPageSize caps the pageSize query parameter of the rows endpoint
	MaxPageSize int `env:"TABLE_MAX_PAGE_SIZE" default:"500"`

	// CoalesceWindow groups fetch triggers issued close together (default: 10ms)
	CoalesceWindow time.Duration `env:"TABLE_COALESCE_WINDOW" default:"10ms"`

	ResizeDebounce time.Duration `env:"TABLE_RESIZE_DEBOUNCE" default:"50ms"`
	MinHeight      int           `env:"TABLE_MIN_HEIGHT" default:"100"`
	FixHeight      int           `env:"TABLE_FIX_HEIGHT" default:"100"`

	// FilterRowNum is the number of checkboxes per column picker row (default: 4)
	FilterRowNum int `env:"TABLE_FILTER_ROW_NUM" default:"4"`

	// MaxConcurrentViews limits server-rendered table pages in progress (default: 8)
	MaxConcurrentViews int           `env:"TABLE_MAX_CONCURRENT_VIEWS" default:"8"`
	ViewWait           time.Duration `env:"TABLE_VIEW_WAIT" default:"5s"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// Burst is the number of requests allowed above the sustained rate (default: 30)
	Burst int `env:"RATE_LIMIT_BURST" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects the /api routes with the X-API-Key header (default: false)
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

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// InMemory reports whether no database is configured.
func (c *DatabaseConfig) InMemory() bool {
	return c.URL == ""
}
