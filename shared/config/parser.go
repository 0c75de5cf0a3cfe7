package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// parse reads Config from the process environment.
func parse() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// loadEnvFiles loads .env, then .env.{ENVIRONMENT}, then .env.local. All are
// optional. The base file never overrides the real environment; the later
// files override what came before them.
func loadEnvFiles(dir string) error {
	base := dir + ".env"
	if fileExists(base) {
		if err := godotenv.Load(base); err != nil {
			return fmt.Errorf("failed to load %s: %w", base, err)
		}
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env != "" {
		envFile := base + "." + env
		if fileExists(envFile) {
			if err := godotenv.Overload(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	local := base + ".local"
	if fileExists(local) {
		if err := godotenv.Overload(local); err != nil {
			return fmt.Errorf("failed to load %s: %w", local, err)
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
