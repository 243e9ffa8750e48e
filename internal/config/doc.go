// Package config defines the application configuration structures and
// loads them from environment variables and optional config files.
// Values are validated after loading so the rest of the system can rely
// on a well-formed Config.
package config
