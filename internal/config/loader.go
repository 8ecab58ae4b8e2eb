package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "./config.yaml"

// Load builds the configuration from, in increasing priority: env-default
// tags, the YAML file, and the environment. A .env file in the working
// directory is loaded first without overriding variables already set.
//
// CONFIG_PATH names the YAML file. When it is unset a missing
// ./config.yaml is fine; when it is set the file must exist.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	cfg, err := read(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	case explicit:
		return nil, fmt.Errorf("file %s: %w", path, statErr)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	}
	return &cfg, nil
}
