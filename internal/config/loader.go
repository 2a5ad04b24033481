package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thruflo/sortvis/internal/dataset"
	"gopkg.in/yaml.v3"
)

// Directory and file names under the base path.
const (
	DirName        = ".sortvis"
	ConfigFileName = "config.yaml"
)

// Default values for Config.
const (
	DefaultAnimationDuration = 0.5
	DefaultDataSet           = string(dataset.Sample)
	DefaultDataSize          = 100
	DefaultServerPort        = 8374
	DefaultRedisChannel      = "sortvis:events"
	DefaultHistoryPath       = "history.db"

	MinAnimationDuration = 0.1
	MaxAnimationDuration = 2.0
)

// DefaultSettings returns display settings matching the visualizer's
// out-of-the-box behaviour.
func DefaultSettings() Settings {
	return Settings{
		AnimationsEnabled: true,
		ShowBarValues:     true,
		ShowTimer:         true,
		Highlight:         true,
		AnimationDuration: DefaultAnimationDuration,
		DataSet:           DefaultDataSet,
		DataSize:          DefaultDataSize,
	}
}

// DefaultServerConfig returns a ServerConfig with sensible default values.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:         DefaultServerPort,
		RedisChannel: DefaultRedisChannel,
	}
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Settings: DefaultSettings(),
		Server:   DefaultServerConfig(),
		History:  HistoryConfig{Path: DefaultHistoryPath},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Path returns the location of config.yaml under basePath.
func Path(basePath string) string {
	return filepath.Join(basePath, DirName, ConfigFileName)
}

// LoadConfig reads and parses .sortvis/config.yaml from the given base path.
// If the file doesn't exist, returns default config.
// Applies defaults for any missing fields.
func LoadConfig(basePath string) (*Config, error) {
	data, err := os.ReadFile(Path(basePath))
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveConfig writes cfg to .sortvis/config.yaml, creating the directory.
func SaveConfig(basePath string, cfg *Config) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	path := Path(basePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	if err := ValidateSettings(&cfg.Settings); err != nil {
		return err
	}
	return ValidateServerConfig(&cfg.Server)
}

// ValidateSettings checks the display settings.
func ValidateSettings(s *Settings) error {
	if s.AnimationDuration < MinAnimationDuration || s.AnimationDuration > MaxAnimationDuration {
		return ValidationError{
			Field:   "settings.animation_duration",
			Message: fmt.Sprintf("must be between %.1f and %.1f", MinAnimationDuration, MaxAnimationDuration),
		}
	}
	if s.DataSize < 1 {
		return ValidationError{Field: "settings.data_size", Message: "must be positive"}
	}
	if _, err := dataset.ParseType(s.DataSet); err != nil {
		return ValidationError{Field: "settings.data_set", Message: err.Error()}
	}
	if s.StepDelay < 0 {
		return ValidationError{Field: "settings.step_delay", Message: "must not be negative"}
	}
	return nil
}

// ValidateServerConfig checks that server config values are valid.
func ValidateServerConfig(cfg *ServerConfig) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return ValidationError{Field: "server.port", Message: "must be between 0 and 65535"}
	}
	if cfg.RedisAddr != "" && cfg.RedisChannel == "" {
		return ValidationError{Field: "server.redis_channel", Message: "required when redis_addr is set"}
	}
	return nil
}

// HistoryPath resolves the history database location, or "" when history
// is disabled.
func (c *Config) HistoryPath(basePath string) string {
	if c.History.Path == "" {
		return ""
	}
	if filepath.IsAbs(c.History.Path) {
		return c.History.Path
	}
	return filepath.Join(basePath, DirName, c.History.Path)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
