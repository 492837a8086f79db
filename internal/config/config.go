// Package config loads the YAML run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "config.yaml"
	DefaultRulesFile  = "rules.yaml"

	DefaultStoragePath    = ".newsift/newsift.db"
	DefaultFeedWorkers    = 20
	DefaultFeedTimeout    = 120 * time.Second
	DefaultExtractWorkers = 10
	DefaultExtractTimeout = 60 * time.Second
	DefaultScheduleSpec   = "@hourly"
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "120s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Fetch    PoolConfig     `yaml:"fetch"`
	Extract  PoolConfig     `yaml:"extract"`
	Storage  StorageConfig  `yaml:"storage"`
	Rules    RulesConfig    `yaml:"rules"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

// PoolConfig sizes one worker-pool tier and its wall-clock budget.
type PoolConfig struct {
	Workers int      `yaml:"workers"`
	Timeout Duration `yaml:"timeout"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type RulesConfig struct {
	Path string `yaml:"path"`
}

type ScheduleConfig struct {
	Spec string `yaml:"spec"`
}

// Load reads config.yaml from dir, applies defaults, and validates.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg, dir)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config, dir string) {
	if cfg.Fetch.Workers == 0 {
		cfg.Fetch.Workers = DefaultFeedWorkers
	}
	if cfg.Fetch.Timeout.Duration == 0 {
		cfg.Fetch.Timeout.Duration = DefaultFeedTimeout
	}
	if cfg.Extract.Workers == 0 {
		cfg.Extract.Workers = DefaultExtractWorkers
	}
	if cfg.Extract.Timeout.Duration == 0 {
		cfg.Extract.Timeout.Duration = DefaultExtractTimeout
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Rules.Path == "" {
		cfg.Rules.Path = filepath.Join(dir, DefaultRulesFile)
	}
	if cfg.Schedule.Spec == "" {
		cfg.Schedule.Spec = DefaultScheduleSpec
	}
}

func validate(cfg *Config) error {
	if cfg.Fetch.Workers < 0 {
		return fmt.Errorf("fetch.workers: must be positive, got %d", cfg.Fetch.Workers)
	}
	if cfg.Extract.Workers < 0 {
		return fmt.Errorf("extract.workers: must be positive, got %d", cfg.Extract.Workers)
	}
	if cfg.Fetch.Timeout.Duration < 0 {
		return errors.New("fetch.timeout: must be positive")
	}
	if cfg.Extract.Timeout.Duration < 0 {
		return errors.New("extract.timeout: must be positive")
	}
	return nil
}
