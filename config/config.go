// Package config loads chainlint settings from file and environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	configDirName  = "chainlint"

	// MaxJobs bounds the worker count a config file may request.
	MaxJobs = 1024
)

// Config for chainlint. Pointer fields; nil = unset.
type Config struct {
	Jobs      *int    `yaml:"jobs"`
	EmitAll   *bool   `yaml:"emit_all"`
	ShowStats *bool   `yaml:"show_stats"`
	Color     *string `yaml:"color"`
}

// LoadFrom loads config from path. A missing file counts as empty; the
// CHAINLINT_* environment overrides and validation still apply.
func LoadFrom(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func Load() (Config, error) {
	return LoadFrom(defaultConfigPath())
}

func (c *Config) applyEnvOverrides() error {
	if v, ok := os.LookupEnv("CHAINLINT_JOBS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse CHAINLINT_JOBS: %w", err)
		}
		c.Jobs = &n
	}
	if v, ok := os.LookupEnv("CHAINLINT_EMIT_ALL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse CHAINLINT_EMIT_ALL: %w", err)
		}
		c.EmitAll = &b
	}
	if v, ok := os.LookupEnv("CHAINLINT_SHOW_STATS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse CHAINLINT_SHOW_STATS: %w", err)
		}
		c.ShowStats = &b
	}
	if v, ok := os.LookupEnv("CHAINLINT_COLOR"); ok {
		c.Color = &v
	}
	return nil
}

func (c *Config) validate() error {
	if c.Jobs != nil && *c.Jobs > MaxJobs {
		return fmt.Errorf("jobs must not exceed %d, got %d", MaxJobs, *c.Jobs)
	}
	if c.Color != nil {
		switch *c.Color {
		case "auto", "always", "never":
		default:
			return fmt.Errorf("color must be auto, always, or never, got %q", *c.Color)
		}
	}
	return nil
}

func defaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName, configFileName)
}
