// Package config provides configuration management for the not-redis server
// and client.
//
// Configuration is layered: built-in defaults, then command-line flags, then
// an optional TOML file, then environment variables, each layer overriding
// the previous one. The serving core (store, protocol, server) never touches
// flags, files or the environment; only the process entry points load
// configuration and pass plain values in.
//
// Example server usage:
//
//	cfg := config.LoadServerConfig()
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//	srv := server.New(cfg, store.New())
//
// Environment variables are prefixed with "NOTREDIS_" and use uppercase
// names, e.g. NOTREDIS_PORT=6791.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default configuration constants. Host, port and frame size mirror the
// protocol's fixed endpoint and receive-buffer capacity.
const (
	DefaultHost             = "127.0.0.1"
	DefaultPort             = 6791
	DefaultMaxFrameSize     = 1024
	DefaultReadTimeoutSecs  = 30
	DefaultWriteTimeoutSecs = 10
	DefaultConnTimeoutSecs  = 5
	DefaultMaxConns         = 8
	DefaultRetryAttempts    = 3
)

// ServerConfig holds all options for a not-redis server instance.
//
// Example TOML file:
//
//	host = "0.0.0.0"
//	port = 6791
//	max_frame_size = 4096
type ServerConfig struct {
	Host         string `toml:"host"`           // Address to bind to (default: "127.0.0.1")
	Port         int    `toml:"port"`           // TCP port to listen on (default: 6791)
	MaxFrameSize int    `toml:"max_frame_size"` // Receive-buffer capacity in bytes (default: 1024)
	ReadTimeout  int    `toml:"read_timeout"`   // Per-frame read deadline in seconds (default: 30)
	WriteTimeout int    `toml:"write_timeout"`  // Per-response write deadline in seconds (default: 10)
}

// ClientConfig holds all options for a not-redis client instance.
type ClientConfig struct {
	Addr          string `toml:"addr"`           // Server address in "host:port" form
	MaxConns      int    `toml:"max_conns"`      // Connection pool size (default: 8)
	ConnTimeout   int    `toml:"conn_timeout"`   // Dial timeout in seconds (default: 5)
	ReadTimeout   int    `toml:"read_timeout"`   // Response read deadline in seconds (default: 30)
	WriteTimeout  int    `toml:"write_timeout"`  // Request write deadline in seconds (default: 10)
	RetryAttempts int    `toml:"retry_attempts"` // Retries after a transport failure (default: 3)
}

// LoadServerConfig builds a ServerConfig from defaults, command-line flags,
// an optional TOML file and environment variables.
//
// Command-line flags:
//
//	-host: bind address (default: "127.0.0.1")
//	-port: TCP port (default: 6791)
//	-max-frame: receive-buffer capacity in bytes (default: 1024)
//	-read-timeout: per-frame read deadline in seconds (default: 30)
//	-write-timeout: per-response write deadline in seconds (default: 10)
//	-config: path to a TOML configuration file
//
// Environment variables:
//
//	NOTREDIS_HOST, NOTREDIS_PORT, NOTREDIS_MAX_FRAME
//
// Returns:
//   - ServerConfig with values loaded from the various sources
//   - Error if the TOML file was requested but could not be decoded
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{
		Host:         DefaultHost,
		Port:         DefaultPort,
		MaxFrameSize: DefaultMaxFrameSize,
		ReadTimeout:  DefaultReadTimeoutSecs,
		WriteTimeout: DefaultWriteTimeoutSecs,
	}

	var file string
	flag.StringVar(&cfg.Host, "host", cfg.Host, "Bind address")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "TCP port")
	flag.IntVar(&cfg.MaxFrameSize, "max-frame", cfg.MaxFrameSize, "Receive-buffer capacity in bytes")
	flag.IntVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "Read deadline in seconds")
	flag.IntVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "Write deadline in seconds")
	flag.StringVar(&file, "config", "", "Path to TOML configuration file")
	flag.Parse()

	if file != "" {
		if _, err := toml.DecodeFile(file, cfg); err != nil {
			return nil, fmt.Errorf("decoding config file %q: %w", file, err)
		}
	}

	if host := os.Getenv("NOTREDIS_HOST"); host != "" {
		cfg.Host = host
	}

	if port := os.Getenv("NOTREDIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}

	if maxFrame := os.Getenv("NOTREDIS_MAX_FRAME"); maxFrame != "" {
		if mf, err := strconv.Atoi(maxFrame); err == nil {
			cfg.MaxFrameSize = mf
		}
	}

	return cfg, nil
}

// LoadClientConfig builds a ClientConfig from defaults and environment
// variables.
//
// Environment variables:
//
//	NOTREDIS_ADDR: server address in "host:port" form
//	NOTREDIS_MAX_CONNS: connection pool size
//	NOTREDIS_CONN_TIMEOUT: dial timeout in seconds
//	NOTREDIS_RETRY_ATTEMPTS: retries after a transport failure
//
// Returns:
//   - ClientConfig with values loaded from environment variables and defaults
func LoadClientConfig() *ClientConfig {
	cfg := &ClientConfig{
		Addr:          fmt.Sprintf("%s:%d", DefaultHost, DefaultPort),
		MaxConns:      DefaultMaxConns,
		ConnTimeout:   DefaultConnTimeoutSecs,
		ReadTimeout:   DefaultReadTimeoutSecs,
		WriteTimeout:  DefaultWriteTimeoutSecs,
		RetryAttempts: DefaultRetryAttempts,
	}

	if addr := os.Getenv("NOTREDIS_ADDR"); addr != "" {
		cfg.Addr = strings.TrimSpace(addr)
	}

	if maxConns := os.Getenv("NOTREDIS_MAX_CONNS"); maxConns != "" {
		if mc, err := strconv.Atoi(maxConns); err == nil {
			cfg.MaxConns = mc
		}
	}

	if connTimeout := os.Getenv("NOTREDIS_CONN_TIMEOUT"); connTimeout != "" {
		if ct, err := strconv.Atoi(connTimeout); err == nil {
			cfg.ConnTimeout = ct
		}
	}

	if retries := os.Getenv("NOTREDIS_RETRY_ATTEMPTS"); retries != "" {
		if ra, err := strconv.Atoi(retries); err == nil {
			cfg.RetryAttempts = ra
		}
	}

	return cfg
}

// Address returns the host:port string for the server to bind to.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks that the ServerConfig contains usable values.
//
// Validation rules:
//   - Port must be between 1 and 65535
//   - MaxFrameSize must be positive
//   - ReadTimeout and WriteTimeout must be positive
//
// Returns:
//   - nil if the configuration is valid
//   - Error describing the first failure found
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.MaxFrameSize < 1 {
		return fmt.Errorf("max frame size must be positive: %d", c.MaxFrameSize)
	}

	if c.ReadTimeout < 1 {
		return fmt.Errorf("read timeout must be positive: %d", c.ReadTimeout)
	}

	if c.WriteTimeout < 1 {
		return fmt.Errorf("write timeout must be positive: %d", c.WriteTimeout)
	}

	return nil
}

// Validate checks that the ClientConfig contains usable values.
//
// Validation rules:
//   - Addr must be non-empty and contain a colon
//   - MaxConns must be positive
//   - All timeouts must be positive
//   - RetryAttempts must be non-negative
//
// Returns:
//   - nil if the configuration is valid
//   - Error describing the first failure found
func (c *ClientConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("server address must be specified")
	}
	if !strings.Contains(c.Addr, ":") {
		return fmt.Errorf("invalid server address format: %s", c.Addr)
	}

	if c.MaxConns < 1 {
		return fmt.Errorf("max connections must be positive: %d", c.MaxConns)
	}

	if c.ConnTimeout < 1 {
		return fmt.Errorf("connection timeout must be positive: %d", c.ConnTimeout)
	}

	if c.ReadTimeout < 1 {
		return fmt.Errorf("read timeout must be positive: %d", c.ReadTimeout)
	}

	if c.WriteTimeout < 1 {
		return fmt.Errorf("write timeout must be positive: %d", c.WriteTimeout)
	}

	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts must be non-negative: %d", c.RetryAttempts)
	}

	return nil
}
