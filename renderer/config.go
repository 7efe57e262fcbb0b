package renderer

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the resource parameters of the visibility pipeline.
type Config struct {
	FramesInFlight  int    `toml:"frames_in_flight"`
	InitialCapacity uint32 `toml:"initial_capacity"`
	GrowthFactor    uint32 `toml:"growth_factor"`
	LogLevel        string `toml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		FramesInFlight:  2,
		InitialCapacity: 1024,
		GrowthFactor:    2,
		LogLevel:        "info",
	}
}

// LoadConfig reads a TOML config file. Fields absent from the file keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.FramesInFlight < 1 || c.FramesInFlight > 8 {
		return fmt.Errorf("frames_in_flight must be in 1..8, got %d", c.FramesInFlight)
	}
	if c.InitialCapacity == 0 {
		return fmt.Errorf("initial_capacity must be positive")
	}
	if c.GrowthFactor < 2 {
		return fmt.Errorf("growth_factor must be at least 2, got %d", c.GrowthFactor)
	}
	return nil
}
