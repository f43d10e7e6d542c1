// Package config loads application configuration from, in order of
// precedence: command-line flags, POLINGU_* environment variables, and
// a YAML config file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Scheduler tunes the memory-model algorithm.
type Scheduler struct {
	DesiredRetention    float64 `koanf:"desired_retention" validate:"gt=0,lte=1"`
	MaximumIntervalDays int     `koanf:"maximum_interval_days" validate:"gte=0"`
	NewCardsPerDay      int     `koanf:"new_cards_per_day" validate:"min=1"`
}

// Config is the full application configuration.
type Config struct {
	ListenAddr string    `koanf:"listen_addr" validate:"required"`
	DBPath     string    `koanf:"db_path" validate:"required"`
	ReposDir   string    `koanf:"repos_dir" validate:"required"`
	Sources    []string  `koanf:"sources"`
	Scheduler  Scheduler `koanf:"scheduler"`
}

// Flags returns the flag set whose defaults double as the config
// defaults.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("polingu", pflag.ExitOnError)
	f.String("config", "", "Path to a YAML config file")
	f.String("listen_addr", "localhost:8080", "HTTP listen address")
	f.String("db_path", "polingu.db", "Path to the SQLite database file")
	f.String("repos_dir", "repos", "Directory for cloned git deck sources")
	f.StringSlice("sources", nil, "Deck content sources (paths or git URLs)")
	f.Bool("sync", false, "Sync content sources and exit")
	f.Float64("scheduler.desired_retention", 0.9, "Target recall probability")
	f.Int("scheduler.maximum_interval_days", 36500, "Cap on scheduled review intervals")
	f.Int("scheduler.new_cards_per_day", 10, "Default daily new-card quota")
	return f
}

// Load merges the file, environment, and flag layers and validates the
// result.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("POLINGU_", ".", func(key string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, "POLINGU_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flag config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load with the standard error path for main.
func MustLoad(f *pflag.FlagSet) *Config {
	cfg, err := Load(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}
