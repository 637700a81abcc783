package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles loading configuration from multiple sources
type Loader struct {
	config *Config
	// FilePath overrides the YAML file location; empty means <data dir>/config.yaml
	FilePath string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		config: NewConfig(),
	}
}

// Load loads configuration using the cascading strategy:
// defaults, then the YAML file, then environment variables.
// Command line flags are applied afterwards by LoadWithOverrides.
func (l *Loader) Load() (*Config, error) {
	// ST_DATA_DIR decides where config.yaml lives, so read it first
	if dir := os.Getenv("ST_DATA_DIR"); dir != "" {
		l.config.Storage.Dir = dir
	}

	if err := l.loadFile(); err != nil {
		return nil, err
	}

	if err := l.config.LoadFromEnvironment(); err != nil {
		return nil, err
	}

	if err := l.config.Validate(); err != nil {
		return nil, err
	}

	return l.config, nil
}

func (l *Loader) loadFile() error {
	path := l.FilePath
	if path == "" {
		path = l.config.GetConfigFilePath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, l.config); err != nil {
		return &ConfigError{Field: "file", Message: fmt.Sprintf("parse %s: %v", path, err)}
	}
	return nil
}

// LoadWithOverrides loads configuration and applies command line overrides
func (l *Loader) LoadWithOverrides(overrides *ConfigOverrides) (*Config, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		overrides.Apply(config)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ConfigOverrides holds command line flag overrides
type ConfigOverrides struct {
	DataDir      *string
	DBFilename   *string
	StorageKey   *string
	WriteTimeout *time.Duration

	BriefingEnabled *bool
	BriefingModel   *string
	BriefingTimeout *time.Duration

	TimeFormat *string

	Timeout *time.Duration
	Verbose *bool
}

// Apply copies every non-nil override onto config
func (o *ConfigOverrides) Apply(config *Config) {
	if o.DataDir != nil {
		config.Storage.Dir = *o.DataDir
	}
	if o.DBFilename != nil {
		config.Storage.Filename = *o.DBFilename
	}
	if o.StorageKey != nil {
		config.Storage.Key = *o.StorageKey
	}
	if o.WriteTimeout != nil {
		config.Storage.WriteTimeout = *o.WriteTimeout
	}

	if o.BriefingEnabled != nil {
		config.Briefing.Enabled = *o.BriefingEnabled
	}
	if o.BriefingModel != nil {
		config.Briefing.Model = *o.BriefingModel
	}
	if o.BriefingTimeout != nil {
		config.Briefing.Timeout = *o.BriefingTimeout
	}

	if o.TimeFormat != nil {
		config.Display.TimeFormat = *o.TimeFormat
	}

	if o.Timeout != nil {
		config.Application.Timeout = *o.Timeout
	}
	if o.Verbose != nil {
		config.Application.Verbose = *o.Verbose
	}
}
