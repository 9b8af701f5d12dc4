package dashauth

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// LoadConfig reads configuration from, in order of precedence:
//  1. the explicit path;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. environment variables only.
//
// Environment variables overlay file values in every case.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}
		return &cfg, nil
	}

	if path != "" {
		return tryRead(path)
	}
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	return &cfg, nil
}
