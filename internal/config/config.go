// Package config loads a loom Context's ambient settings (the worker pool,
// profiling flag, log level) from a config file and environment variables,
// layered through Viper: defaults, then file, then LOOM_-prefixed
// environment variables.
package config

import (
	"fmt"
)

const (
	configName = ".loom"
	configType = "yaml"
	envPrefix  = "LOOM"

	// DefaultWorkerCount is used when neither a config file nor LOOM_WORKERS
	// names an explicit worker list.
	DefaultWorkerCount = 4
	// DefaultLogLevel is used when LOOM_LOG_LEVEL / log_level is unset.
	DefaultLogLevel = "info"
)

// Config is the on-disk/env-var shape a loom Context is built from.
type Config struct {
	Workers  []string `mapstructure:"workers"`
	Profile  bool     `mapstructure:"profile"`
	LogLevel string   `mapstructure:"log_level"`
}

// Validate reports whether cfg is usable as-is.
func (c *Config) Validate() error {
	if len(c.Workers) == 0 {
		return fmt.Errorf("config: at least one worker is required")
	}
	seen := make(map[string]bool, len(c.Workers))
	for _, w := range c.Workers {
		if w == "" {
			return fmt.Errorf("config: worker name must not be empty")
		}
		if seen[w] {
			return fmt.Errorf("config: duplicate worker name %q", w)
		}
		seen[w] = true
	}
	return nil
}
