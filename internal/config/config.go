// Package config handles loading the configuration for the jyed server from a TOML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults.
const (
	DefaultAddr            = "localhost:8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultMaxBodyBytes    = 10 << 20 // 10MiB, comfortably larger than anything anyone will paste into a textarea
)

// Config is the complete jyed configuration.
type Config struct {
	Server Server `toml:"server"`
	Log    Log    `toml:"log"`
}

// Server configures the HTTP server behind the editor.
type Server struct {
	// Addr is the TCP address to listen on.
	Addr string `toml:"addr"`

	// ReadTimeout is the maximum duration allowed to read an entire request.
	ReadTimeout time.Duration `toml:"read_timeout"`

	// WriteTimeout is the maximum duration allowed to write a response.
	WriteTimeout time.Duration `toml:"write_timeout"`

	// ShutdownTimeout is how long in-flight requests are given to finish
	// once the server is asked to stop.
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`

	// MaxBodyBytes caps the size of any request body.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
}

// Log configures logging.
type Log struct {
	Debug bool `toml:"debug"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            DefaultAddr,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxBodyBytes:    DefaultMaxBodyBytes,
		},
	}
}

// Load reads the config file at path on top of [Default], so any key missing
// from the file keeps its default value.
//
// Unknown keys are an error, as is a config that fails [Config.Validate].
func Load(path string) (Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("could not decode config file %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}

		return Config{}, fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports whether the Config is usable, returning an error if it's not.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Server.Addr) == "":
		return errors.New("server.addr cannot be empty")
	case c.Server.ReadTimeout <= 0:
		return fmt.Errorf("server.read_timeout must be positive, got %s", c.Server.ReadTimeout)
	case c.Server.WriteTimeout <= 0:
		return fmt.Errorf("server.write_timeout must be positive, got %s", c.Server.WriteTimeout)
	case c.Server.ShutdownTimeout <= 0:
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	case c.Server.MaxBodyBytes <= 0:
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	default:
		return nil
	}
}
