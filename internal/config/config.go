package config

// Config holds all application configuration, organized into logical
// groups.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Features FeaturesConfig `mapstructure:"features" validate:"required"`
	Async    AsyncConfig    `mapstructure:"async"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig contains all server-related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// Debug attaches stack traces to error responses. Meant for local
	// development only.
	Debug bool `mapstructure:"debug"`
}

// FeaturesConfig locates the features tree the engine scans.
type FeaturesConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`

	// Watch enables rescanning when the tree changes on disk.
	Watch bool `mapstructure:"watch"`
}

// AsyncConfig tunes the background task scheduler.
type AsyncConfig struct {
	Workers   int `mapstructure:"workers"    validate:"omitempty,gt=0"`
	QueueSize int `mapstructure:"queue_size" validate:"omitempty,gt=0"`
}

// AuthConfig contains authentication settings for features that use the
// token service.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"omitempty,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"omitempty,gt=0"`
}
