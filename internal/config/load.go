package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for environment variable overrides, e.g.
// TRAILWAY_SERVER_PORT.
const envPrefix = "TRAILWAY"

// Load reads configuration from an optional "trailway" config file in
// the working directory and from environment variables, with the
// environment taking precedence. The result is validated before being
// returned.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.debug", false)
	v.SetDefault("features.dir", "features")
	v.SetDefault("features.watch", false)
	v.SetDefault("async.workers", 2)
	v.SetDefault("async.queue_size", 100)
	v.SetDefault("auth.token_lifetime_minutes", 60)
	// Every key needs a default, even an empty one: viper's Unmarshal
	// only sees keys it already knows about, so an env-only value like
	// TRAILWAY_AUTH_JWT_SECRET would otherwise be dropped.
	v.SetDefault("auth.jwt_secret", "")

	v.SetConfigName("trailway")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; defaults and environment apply.
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
