package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	configPathEnv     = "CONFIG_PATH"
	defaultConfigPath = "./config.yaml"
)

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The file is named by CONFIG_PATH, falling back to ./config.yaml; a missing
// fallback file is not an error and leaves ENV + defaults.
func Load() (*Config, error) {
	path, explicit := os.LookupEnv(configPathEnv)
	if !explicit || path == "" {
		path, explicit = defaultConfigPath, false
	}

	cfg, err := load(path, explicit)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// defaults holds the settings that are on unless configured off. cleanenv
// applies env-default to any zero field, so a default of true would override
// an explicit false in the file; these are seeded before parsing instead.
func defaults() Config {
	var cfg Config
	cfg.RateLimit.Enabled = true
	cfg.Database.AutoMigrate = true
	cfg.Tracking.Enabled = true
	cfg.Preflight.PickupLocation = true
	cfg.Preflight.PickupLocationToAgency = true
	cfg.Preflight.DuplicateRequest = true
	cfg.Preflight.Patron = true
	cfg.Tracing.Insecure = true
	return cfg
}

func load(path string, required bool) (*Config, error) {
	cfg := defaults()

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	case required || !errors.Is(statErr, fs.ErrNotExist):
		return nil, fmt.Errorf("config: file %s: %w", path, statErr)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}
	return &cfg, nil
}
