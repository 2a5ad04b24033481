package config

import "time"

// Settings holds the display settings of the visualizer. The engine never
// reads them; drivers apply them to presentation only.
type Settings struct {
	AnimationsEnabled bool    `yaml:"animations_enabled"`
	ShowBarValues     bool    `yaml:"show_bar_values"`
	ShowTimer         bool    `yaml:"show_timer"`
	Highlight         bool    `yaml:"highlight"`
	AnimationDuration float64 `yaml:"animation_duration"`

	DataSet  string `yaml:"data_set"`
	DataSize int    `yaml:"data_size"`

	// StepDelay paces the engine at every checkpoint. Passed to the engine
	// explicitly by the commands that create one.
	StepDelay time.Duration `yaml:"step_delay"`
}

// FrameInterval is the redraw period implied by AnimationDuration.
func (s Settings) FrameInterval() time.Duration {
	return time.Duration(s.AnimationDuration * float64(time.Second))
}

// ServerConfig configures `sortvis serve`.
type ServerConfig struct {
	Port int `yaml:"port"`

	// RedisAddr enables publishing every event to RedisChannel when set.
	RedisAddr    string `yaml:"redis_addr,omitempty"`
	RedisChannel string `yaml:"redis_channel,omitempty"`
}

// HistoryConfig configures the run history store.
type HistoryConfig struct {
	// Path is relative to the .sortvis directory unless absolute. Empty
	// disables history.
	Path string `yaml:"path"`
}

// Config represents the .sortvis/config.yaml file.
type Config struct {
	Settings Settings      `yaml:"settings"`
	Server   ServerConfig  `yaml:"server"`
	History  HistoryConfig `yaml:"history"`
}
