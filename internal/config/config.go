// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

// Package config loads service configuration from file, flags, and
// environment.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Defaults applied before any file or flag values.
const (
	DefaultAPIAddr           = ":8080"
	DefaultObservabilityAddr = ":9100"
	DefaultPublicBaseURL     = "http://localhost:8080"
	DefaultLogFormat         = "json"
	DefaultLogLevel          = "info"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig configures the HTTP listeners.
type ServerConfig struct {
	Addr              string   `koanf:"addr"`
	ObservabilityAddr string   `koanf:"observability_addr"`
	PublicBaseURL     string   `koanf:"public_base_url"`
	AllowedOrigins    []string `koanf:"allowed_origins"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// AuthConfig configures token signing.
// TokenSecret must never be logged; it is read-only after startup and
// rotating it invalidates all outstanding sessions.
type AuthConfig struct {
	TokenSecret string `koanf:"token_secret"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Load merges configuration from the optional YAML file at path, the
// given flag set, and the DATABASE_URL / SLOTTER_TOKEN_SECRET
// environment variables, in increasing priority.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	cfg := &Config{
		Server: ServerConfig{
			Addr:              DefaultAPIAddr,
			ObservabilityAddr: DefaultObservabilityAddr,
			PublicBaseURL:     DefaultPublicBaseURL,
		},
		Log: LogConfig{
			Format: DefaultLogFormat,
			Level:  DefaultLogLevel,
		},
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return nil, oops.Code("CONFIG_FILE_INVALID").
					With("path", path).
					Wrap(err)
			}
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	// Environment wins over file and flags for the two secrets-adjacent
	// settings operators usually inject at deploy time.
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if secret := os.Getenv("SLOTTER_TOKEN_SECRET"); secret != "" {
		cfg.Auth.TokenSecret = secret
	}

	return cfg, nil
}

// Validate checks that the configuration is complete enough to start.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr cannot be empty")
	}
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required (or set DATABASE_URL)")
	}
	if c.Auth.TokenSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("auth.token_secret is required (or set SLOTTER_TOKEN_SECRET)")
	}
	if len(c.Auth.TokenSecret) < 32 {
		return oops.Code("CONFIG_INVALID").Errorf("auth.token_secret must be at least 32 bytes")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be json or text")
	}
	return nil
}
