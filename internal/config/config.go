// Package config resolves the runtime configuration from built-in
// defaults, an optional YAML file, HOERSAAL_* environment variables and
// command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "HOERSAAL_"

// Config carries everything the command line tool needs to run.
type Config struct {
	// Database is the path of the SQLite cache file.
	Database string `koanf:"database" validate:"required"`
	// View names the view used when a command does not name one.
	View string `koanf:"view" validate:"required"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log-level" validate:"oneof=debug info warn error"`
	// Environment selects the log encoding, development or production.
	Environment string `koanf:"environment" validate:"oneof=development production"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:    "hoersaal.sqlite",
		View:        "default",
		LogLevel:    "info",
		Environment: "production",
	}
}

// Load resolves the configuration. path may be empty to skip the file
// layer, flags may be nil to skip the flag layer. Flag names map to
// config keys verbatim, environment variables drop the HOERSAAL_
// prefix and turn underscores into dashes, so HOERSAAL_LOG_LEVEL sets
// log-level.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", "-")
	}), nil); err != nil {
		return cfg, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return cfg, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
