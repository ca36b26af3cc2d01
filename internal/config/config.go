// Package config loads the aggregator's YAML configuration. Environment
// variables referenced as ${VAR} in the file are expanded before parsing, so
// secrets like the GitHub token stay out of the file itself.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the default config location when set.
const EnvConfigPath = "VAGASJR_CONFIG"

const defaultPath = "config.yaml"

// Config is the root configuration for the aggregator.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Schedule ScheduleConfig
	Sources  SourcesConfig
	Retention RetentionConfig
	GitHub   GitHubConfig
	LogLevel string // debug, info, warn, error
}

// DatabaseConfig locates the SQLite catalog file.
type DatabaseConfig struct {
	Path string
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Addr string
}

// ScheduleConfig controls the periodic sync.
type ScheduleConfig struct {
	Enabled bool
	Spec    string // cron expression
}

// RetentionConfig controls the stale-posting sweep.
type RetentionConfig struct {
	MaxAgeDays int
}

// GitHubConfig carries the optional API token for the issue boards.
type GitHubConfig struct {
	Token string
}

// SourceConfig toggles one collector and tunes its request pacing.
type SourceConfig struct {
	Enabled bool
	Delay   time.Duration // minimum gap between requests to this source
}

// SourcesConfig holds one entry per collector.
type SourcesConfig struct {
	GitHub       SourceConfig
	LinkedIn     SourceConfig
	Gupy         SourceConfig
	Vagas        SourceConfig
	Programathor SourceConfig
}

// Delays returns the per-source rate limiter overrides keyed by collector
// name.
func (s SourcesConfig) Delays() map[string]time.Duration {
	return map[string]time.Duration{
		"GitHub":       s.GitHub.Delay,
		"LinkedIn":     s.LinkedIn.Delay,
		"Gupy":         s.Gupy.Delay,
		"Vagas":        s.Vagas.Delay,
		"Programathor": s.Programathor.Delay,
	}
}

// rawConfig mirrors the YAML layout (snake_case, durations as strings).
type rawConfig struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Schedule struct {
		Enabled *bool  `yaml:"enabled"`
		Spec    string `yaml:"spec"`
	} `yaml:"schedule"`
	Retention struct {
		MaxAgeDays int `yaml:"max_age_days"`
	} `yaml:"retention"`
	GitHub struct {
		Token string `yaml:"token"`
	} `yaml:"github"`
	Sources  map[string]rawSourceConfig `yaml:"sources"`
	LogLevel string                     `yaml:"log_level"`
}

type rawSourceConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Delay   string `yaml:"delay"`
}

// Default returns the configuration used when no file is present: all
// sources on, conservative pacing, 45-day retention. The periodic sync is
// opt-in; a bare `serve` must not start scraping live sources on a timer.
func Default() *Config {
	return &Config{
		Database:  DatabaseConfig{Path: "vagasjr.db"},
		Server:    ServerConfig{Addr: ":8080"},
		Schedule:  ScheduleConfig{Enabled: false, Spec: "0 */12 * * *"},
		Retention: RetentionConfig{MaxAgeDays: 45},
		Sources: SourcesConfig{
			GitHub:       SourceConfig{Enabled: true, Delay: 1 * time.Second},
			LinkedIn:     SourceConfig{Enabled: true, Delay: 2 * time.Second},
			Gupy:         SourceConfig{Enabled: true, Delay: 1500 * time.Millisecond},
			Vagas:        SourceConfig{Enabled: true, Delay: 2 * time.Second},
			Programathor: SourceConfig{Enabled: true, Delay: 2 * time.Second},
		},
		LogLevel: "info",
	}
}

// ResolvePath picks the config file location: the explicit flag value wins,
// then the VAGASJR_CONFIG env var, then ./config.yaml.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return defaultPath
}

// Load reads the YAML file at path and merges it over the defaults. A
// missing file at the default location is not an error; a missing file at an
// explicitly requested location is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == defaultPath {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if raw.Database.Path != "" {
		cfg.Database.Path = raw.Database.Path
	}
	if raw.Server.Addr != "" {
		cfg.Server.Addr = raw.Server.Addr
	}
	if raw.Schedule.Enabled != nil {
		cfg.Schedule.Enabled = *raw.Schedule.Enabled
	}
	if raw.Schedule.Spec != "" {
		cfg.Schedule.Spec = raw.Schedule.Spec
	}
	if raw.Retention.MaxAgeDays != 0 {
		cfg.Retention.MaxAgeDays = raw.Retention.MaxAgeDays
	}
	cfg.GitHub.Token = raw.GitHub.Token
	if raw.LogLevel != "" {
		cfg.LogLevel = raw.LogLevel
	}

	for name, rawSrc := range raw.Sources {
		var target *SourceConfig
		switch name {
		case "github":
			target = &cfg.Sources.GitHub
		case "linkedin":
			target = &cfg.Sources.LinkedIn
		case "gupy":
			target = &cfg.Sources.Gupy
		case "vagas":
			target = &cfg.Sources.Vagas
		case "programathor":
			target = &cfg.Sources.Programathor
		default:
			return nil, fmt.Errorf("unknown source %q in config", name)
		}
		if rawSrc.Enabled != nil {
			target.Enabled = *rawSrc.Enabled
		}
		if rawSrc.Delay != "" {
			d, err := time.ParseDuration(rawSrc.Delay)
			if err != nil {
				return nil, fmt.Errorf("parse sources.%s.delay %q: %w", name, rawSrc.Delay, err)
			}
			target.Delay = d
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if cfg.Retention.MaxAgeDays <= 0 {
		return fmt.Errorf("retention.max_age_days must be positive, got %d", cfg.Retention.MaxAgeDays)
	}
	if _, err := cron.ParseStandard(cfg.Schedule.Spec); err != nil {
		return fmt.Errorf("parse schedule.spec %q: %w", cfg.Schedule.Spec, err)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}
	for name, src := range map[string]SourceConfig{
		"github":       cfg.Sources.GitHub,
		"linkedin":     cfg.Sources.LinkedIn,
		"gupy":         cfg.Sources.Gupy,
		"vagas":        cfg.Sources.Vagas,
		"programathor": cfg.Sources.Programathor,
	} {
		if src.Delay < 0 {
			return fmt.Errorf("sources.%s.delay must not be negative", name)
		}
	}
	return nil
}
