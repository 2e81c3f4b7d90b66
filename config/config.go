// Package config loads settings from an optional YAML file, then the
// AWREPLAY_ environment, and sets up logging.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"awreplay/meta"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "AWREPLAY_"

type Config struct {
	LogLevel     string        `yaml:"log_level" env:"LOG_LEVEL"`
	PrettyLogs   bool          `yaml:"pretty_logs" env:"PRETTY_LOGS"`
	Strict       bool          `yaml:"strict" env:"STRICT"`
	StepInterval time.Duration `yaml:"step_interval" env:"STEP_INTERVAL"`
	UpdateBuffer int           `yaml:"update_buffer" env:"UPDATE_BUFFER"`
	ListenAddr   string        `yaml:"listen_addr" env:"LISTEN_ADDR"`
	JournalDir   string        `yaml:"journal_dir" env:"JOURNAL_DIR"`
	MetricsDir   string        `yaml:"metrics_dir" env:"METRICS_DIR"`
	CatalogPath  string        `yaml:"catalog_path" env:"CATALOG_PATH"`
}

func Default() Config {
	return Config{
		LogLevel:     "info",
		PrettyLogs:   true,
		Strict:       true,
		StepInterval: meta.DEFAULT_STEP_INTERVAL_MS * time.Millisecond,
		UpdateBuffer: meta.UPDATE_BUFFER,
		ListenAddr:   ":8080",
		JournalDir:   "journals",
		MetricsDir:   filepath.Join("experiments", "replays"),
		CatalogPath:  "catalog.db",
	}
}

// Load layers the defaults, the YAML file at path (skipped when path is
// empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := decodeYAML(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(cfg)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.StepInterval <= 0 {
		return fmt.Errorf("step interval must be positive, got %s", c.StepInterval)
	}
	if c.UpdateBuffer < 1 {
		return fmt.Errorf("update buffer must be at least 1, got %d", c.UpdateBuffer)
	}
	return nil
}

// SetupLogging configures the global zerolog logger.
func SetupLogging(level string, pretty bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return nil
}
