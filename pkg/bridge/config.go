// Package bridge provides the WebSocket voice bridge server. It sits between
// a caller's client and the OpenAI realtime session, forwarding audio both
// ways and routing intercepted tool calls through the execution router.
package bridge

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all bridge server configuration.
type Config struct {
	// Server settings
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`

	// TLS settings
	TLSEnabled  bool   `json:"tls_enabled" yaml:"tls_enabled"`
	TLSCertFile string `json:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `json:"tls_key_file" yaml:"tls_key_file"`

	// CORS
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// Observability
	MetricsEnabled bool   `json:"metrics_enabled" yaml:"metrics_enabled"`
	MetricsPath    string `json:"metrics_path" yaml:"metrics_path"`

	// Call limits
	MaxConcurrentCalls int           `json:"max_concurrent_calls" yaml:"max_concurrent_calls"`
	CallIdleTimeout    time.Duration `json:"call_idle_timeout" yaml:"call_idle_timeout"`

	// Timeouts
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Logger
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host: "0.0.0.0",
		Port: 8080,

		AllowedOrigins: []string{"*"},

		MetricsEnabled: true,
		MetricsPath:    "/metrics",

		MaxConcurrentCalls: 100,
		CallIdleTimeout:    5 * time.Minute,

		ReadTimeout:     60 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 30 * time.Second,

		Logger: slog.Default(),
	}
}

// LoadFromEnv overrides server settings from environment variables.
func (c *Config) LoadFromEnv() {
	if host := os.Getenv("BRIDGE_HOST"); host != "" {
		c.Host = host
	}
	if port := os.Getenv("BRIDGE_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			c.Port = n
		}
	}
	if limit := os.Getenv("BRIDGE_MAX_CALLS"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			c.MaxConcurrentCalls = n
		}
	}
}

// ConfigOption is a functional option for Config.
type ConfigOption func(*Config)

// WithHost sets the server host.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithPort sets the server port.
func WithPort(port int) ConfigOption {
	return func(c *Config) {
		c.Port = port
	}
}

// WithTLS enables TLS with the given certificate and key files.
func WithTLS(certFile, keyFile string) ConfigOption {
	return func(c *Config) {
		c.TLSEnabled = true
		c.TLSCertFile = certFile
		c.TLSKeyFile = keyFile
	}
}

// WithAllowedOrigins sets allowed CORS and WebSocket origins.
func WithAllowedOrigins(origins []string) ConfigOption {
	return func(c *Config) {
		c.AllowedOrigins = origins
	}
}

// WithMetrics enables or disables the metrics endpoint.
func WithMetrics(enabled bool) ConfigOption {
	return func(c *Config) {
		c.MetricsEnabled = enabled
	}
}

// WithMaxConcurrentCalls caps the number of simultaneous calls.
func WithMaxConcurrentCalls(n int) ConfigOption {
	return func(c *Config) {
		c.MaxConcurrentCalls = n
	}
}

// WithCallIdleTimeout sets the per-call read deadline.
func WithCallIdleTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.CallIdleTimeout = d
	}
}

// WithTimeouts sets server timeouts.
func WithTimeouts(read, write, shutdown time.Duration) ConfigOption {
	return func(c *Config) {
		if read > 0 {
			c.ReadTimeout = read
		}
		if write > 0 {
			c.WriteTimeout = write
		}
		if shutdown > 0 {
			c.ShutdownTimeout = shutdown
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}
