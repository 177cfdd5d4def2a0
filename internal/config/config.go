package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads a yaml config file, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a config with every default applied, for tools and tests
// that run without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
