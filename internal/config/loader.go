package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"loom/internal/graph"
)

// Load reads configuration from file, environment variables (LOOM_-
// prefixed), and defaults. If configPath is non-empty it is used as the
// explicit config file path; otherwise the config file is searched in the
// current directory and $HOME. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	defaultWorkers := make([]string, DefaultWorkerCount)
	for i := range defaultWorkers {
		defaultWorkers[i] = fmt.Sprintf("w%d", i+1)
	}
	v.SetDefault("workers", defaultWorkers)
	v.SetDefault("profile", false)
	v.SetDefault("log_level", DefaultLogLevel)
}

// NewContext builds a graph.Context from a loaded Config, parsing its log
// level into a *slog.Logger the way the rest of loom expects.
func NewContext(cfg *Config) *graph.Context {
	workers := make([]graph.WorkerID, len(cfg.Workers))
	for i, w := range cfg.Workers {
		workers[i] = graph.WorkerID(w)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return graph.NewContext(workers, logger, cfg.Profile)
}
