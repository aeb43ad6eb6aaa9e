package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration. Zero values fall back to the
// defaults below; command-line flags override file values.
type Config struct {
	DataDir     string `yaml:"data_dir"`
	Listen      string `yaml:"listen"`
	CutoverHour int    `yaml:"cutover_hour"` // UTC hour of the daily removal batch

	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`

	Policies struct {
		Assignment string `yaml:"assignment"` // least-loaded | random
		Job        string `yaml:"job"`        // earliest-fit | latest-acceptable | least-busy
	} `yaml:"policies"`

	Redis struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
		DB      int    `yaml:"db"`
		Stream  string `yaml:"stream"`
	} `yaml:"redis"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		DataDir:     "./gridpool-data",
		Listen:      "127.0.0.1:8080",
		CutoverHour: 3,
	}
	cfg.Log.Level = "info"
	cfg.Policies.Assignment = "least-loaded"
	cfg.Policies.Job = "least-busy"
	cfg.Redis.Addr = "127.0.0.1:6379"
	return cfg
}

// Load reads a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.CutoverHour < 0 || cfg.CutoverHour > 23 {
		return nil, fmt.Errorf("cutover_hour must be between 0 and 23, got %d", cfg.CutoverHour)
	}
	return cfg, nil
}
