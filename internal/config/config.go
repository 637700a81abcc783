package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration options for the mission log
type Config struct {
	Storage     StorageConfig     `yaml:"storage"`
	Briefing    BriefingConfig    `yaml:"briefing"`
	Validation  ValidationConfig  `yaml:"validation"`
	Display     DisplayConfig     `yaml:"display"`
	Application ApplicationConfig `yaml:"application"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	Dir            string        `yaml:"dir" env:"ST_DATA_DIR"`
	Filename       string        `yaml:"filename" env:"ST_DB_FILENAME"`
	Key            string        `yaml:"key" env:"ST_STORAGE_KEY"`
	QueryTimeout   time.Duration `yaml:"query_timeout" env:"ST_DB_QUERY_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"ST_DB_WRITE_TIMEOUT"`
	DirPermissions uint32        `yaml:"dir_permissions" env:"ST_DB_DIR_PERMISSIONS"`
}

// BriefingConfig holds settings for the codename service
type BriefingConfig struct {
	Enabled bool          `yaml:"enabled" env:"ST_BRIEFING_ENABLED"`
	APIKey  string        `yaml:"api_key" env:"ST_API_KEY"`
	Model   string        `yaml:"model" env:"ST_BRIEFING_MODEL"`
	Timeout time.Duration `yaml:"timeout" env:"ST_BRIEFING_TIMEOUT"`
}

// ValidationConfig holds validation rules configuration
type ValidationConfig struct {
	TitleMaxLength       int `yaml:"title_max_length" env:"ST_TITLE_MAX"`
	DescriptionMaxLength int `yaml:"description_max_length" env:"ST_DESCRIPTION_MAX"`
}

// DisplayConfig holds display formatting configuration
type DisplayConfig struct {
	TimeFormat string `yaml:"time_format" env:"ST_TIME_FORMAT"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"ST_APP_TIMEOUT"`
	Verbose bool          `yaml:"verbose" env:"ST_VERBOSE"`
}

// DefaultModel is the Gemini model used for briefings.
const DefaultModel = "gemini-3-flash-preview"

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Storage: StorageConfig{
			Dir:            filepath.Join(homeDir, ".star-task"),
			Filename:       "star-task.db",
			Key:            "star-tasks",
			QueryTimeout:   10 * time.Second,
			WriteTimeout:   5 * time.Second,
			DirPermissions: 0755,
		},
		Briefing: BriefingConfig{
			Enabled: true,
			Model:   DefaultModel,
			Timeout: 30 * time.Second,
		},
		Validation: ValidationConfig{
			TitleMaxLength:       0,
			DescriptionMaxLength: 0,
		},
		Display: DisplayConfig{
			TimeFormat: "2006-01-02 15:04",
		},
		Application: ApplicationConfig{
			Timeout: 60 * time.Second,
		},
	}
}

// GetDatabasePath returns the full path to the database file
func (c *Config) GetDatabasePath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.Filename)
}

// GetConfigFilePath returns where the optional YAML config file is looked for
func (c *Config) GetConfigFilePath() string {
	return filepath.Join(c.Storage.Dir, "config.yaml")
}

// BriefingAvailable reports whether the remote briefing service can be used
func (c *Config) BriefingAvailable() bool {
	return c.Briefing.Enabled && c.Briefing.APIKey != ""
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() error {
	// Storage configuration
	if dir := os.Getenv("ST_DATA_DIR"); dir != "" {
		c.Storage.Dir = dir
	}
	if filename := os.Getenv("ST_DB_FILENAME"); filename != "" {
		c.Storage.Filename = filename
	}
	if key := os.Getenv("ST_STORAGE_KEY"); key != "" {
		c.Storage.Key = key
	}
	c.Storage.QueryTimeout = ParseDurationWithFallback(os.Getenv("ST_DB_QUERY_TIMEOUT"), c.Storage.QueryTimeout)
	c.Storage.WriteTimeout = ParseDurationWithFallback(os.Getenv("ST_DB_WRITE_TIMEOUT"), c.Storage.WriteTimeout)
	c.Storage.DirPermissions = ParseUint32WithFallback(os.Getenv("ST_DB_DIR_PERMISSIONS"), 8, c.Storage.DirPermissions)

	// Briefing configuration
	c.Briefing.Enabled = ParseBoolWithFallback(os.Getenv("ST_BRIEFING_ENABLED"), c.Briefing.Enabled)
	for _, name := range []string{"ST_API_KEY", "GEMINI_API_KEY", "API_KEY"} {
		if key := os.Getenv(name); key != "" {
			c.Briefing.APIKey = key
			break
		}
	}
	if model := os.Getenv("ST_BRIEFING_MODEL"); model != "" {
		c.Briefing.Model = model
	}
	c.Briefing.Timeout = ParseDurationWithFallback(os.Getenv("ST_BRIEFING_TIMEOUT"), c.Briefing.Timeout)

	// Validation configuration
	c.Validation.TitleMaxLength = ParseIntWithFallback(os.Getenv("ST_TITLE_MAX"), c.Validation.TitleMaxLength)
	c.Validation.DescriptionMaxLength = ParseIntWithFallback(os.Getenv("ST_DESCRIPTION_MAX"), c.Validation.DescriptionMaxLength)

	// Display configuration
	if format := os.Getenv("ST_TIME_FORMAT"); format != "" {
		c.Display.TimeFormat = format
	}

	// Application configuration
	c.Application.Timeout = ParseDurationWithFallback(os.Getenv("ST_APP_TIMEOUT"), c.Application.Timeout)
	c.Application.Verbose = ParseBoolWithFallback(os.Getenv("ST_VERBOSE"), c.Application.Verbose)

	return nil
}

// Validate validates the configuration and returns any errors
func (c *Config) Validate() error {
	if c.Storage.Dir == "" {
		return &ConfigError{Field: "storage.dir", Message: "data directory cannot be empty"}
	}
	if c.Storage.Filename == "" {
		return &ConfigError{Field: "storage.filename", Message: "database filename cannot be empty"}
	}
	if c.Storage.Key == "" {
		return &ConfigError{Field: "storage.key", Message: "storage key cannot be empty"}
	}
	if c.Storage.QueryTimeout <= 0 {
		return &ConfigError{Field: "storage.query_timeout", Message: "query timeout must be positive"}
	}
	if c.Storage.WriteTimeout <= 0 {
		return &ConfigError{Field: "storage.write_timeout", Message: "write timeout must be positive"}
	}

	if c.Briefing.Model == "" {
		return &ConfigError{Field: "briefing.model", Message: "briefing model cannot be empty"}
	}
	if c.Briefing.Timeout <= 0 {
		return &ConfigError{Field: "briefing.timeout", Message: "briefing timeout must be positive"}
	}

	if c.Validation.TitleMaxLength < 0 {
		return &ConfigError{Field: "validation.title_max_length", Message: "title maximum length cannot be negative"}
	}
	if c.Validation.DescriptionMaxLength < 0 {
		return &ConfigError{Field: "validation.description_max_length", Message: "description maximum length cannot be negative"}
	}

	if c.Display.TimeFormat == "" {
		return &ConfigError{Field: "display.time_format", Message: "time format cannot be empty"}
	}

	if c.Application.Timeout <= 0 {
		return &ConfigError{Field: "application.timeout", Message: "application timeout must be positive"}
	}
	// a briefing that outlives the command deadline would fail the add instead of falling back
	if c.Application.Timeout <= c.Briefing.Timeout {
		return &ConfigError{Field: "application.timeout", Message: "application timeout must exceed briefing timeout"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// ParseDurationWithFallback parses a duration string with a fallback value
func ParseDurationWithFallback(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}

// ParseIntWithFallback parses an integer string with a fallback value
func ParseIntWithFallback(s string, fallback int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return fallback
}

// ParseBoolWithFallback parses a boolean string with a fallback value
func ParseBoolWithFallback(s string, fallback bool) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return fallback
}

// ParseUint32WithFallback parses a uint32 string with a fallback value
func ParseUint32WithFallback(s string, base int, fallback uint32) uint32 {
	if u, err := strconv.ParseUint(s, base, 32); err == nil {
		return uint32(u)
	}
	return fallback
}
