// Package config loads the runtime configuration of the backend process.
package config

import (
	"absence-desk/pkg/config"
	"absence-desk/pkg/resdir"
)

// Defaults
const (
	DefaultLogLevel    = "INFO"
	DefaultMaxInFlight = 8
	DefaultIdentifier  = config.AppIdentifier
	EnvPrefix          = "ABSENCE_DESK_"
)

// ConfigFileNames are searched in the working directory when no explicit
// config file is given.
var ConfigFileNames = []string{"absence-desk.yaml", "absence-desk.yml"}

// Config holds all runtime options
type Config struct {
	ResourceDir string `koanf:"resource_dir"`
	Identifier  string `koanf:"identifier"`
	LogLevel    string `koanf:"log_level"`
	WatchAssets bool   `koanf:"watch_assets"`
	MaxInFlight int    `koanf:"max_in_flight"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Identifier:  DefaultIdentifier,
		LogLevel:    DefaultLogLevel,
		MaxInFlight: DefaultMaxInFlight,
	}
}

// Resolver returns the resource directory resolver selected by the config.
// An explicit resource_dir wins over platform resolution.
func (c *Config) Resolver() resdir.Resolver {
	if c.ResourceDir != "" {
		return resdir.Static(c.ResourceDir)
	}
	return resdir.NewPlatformResolver(c.Identifier)
}
