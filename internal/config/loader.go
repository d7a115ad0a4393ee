package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Result is a loaded configuration plus the file it came from, if any
type Result struct {
	Config   *Config
	FileUsed string
}

// findConfigFile returns the config file to use.
// Priority: explicit path > absence-desk.yaml > absence-desk.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load reads configuration from defaults, an optional YAML file, environment
// variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Result, error) {
	k := koanf.New(".")
	defaults := Default()

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"resource_dir":  defaults.ResourceDir,
		"identifier":    defaults.Identifier,
		"log_level":     defaults.LogLevel,
		"watch_assets":  defaults.WatchAssets,
		"max_in_flight": defaults.MaxInFlight,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	fileUsed := findConfigFile(cfgFile)
	if fileUsed != "" {
		if err := k.Load(file.Provider(fileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", fileUsed, err)
		}
	}

	// ABSENCE_DESK_RESOURCE_DIR -> resource_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Result{Config: &cfg, FileUsed: fileUsed}, nil
}

// Validate checks option ranges
func (c *Config) Validate() error {
	if c.MaxInFlight < 1 {
		return fmt.Errorf("max_in_flight must be at least 1, got %d", c.MaxInFlight)
	}
	if strings.TrimSpace(c.Identifier) == "" && c.ResourceDir == "" {
		return fmt.Errorf("identifier is required when resource_dir is not set")
	}
	return nil
}
