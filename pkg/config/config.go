package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Load reads the given .env files, or ./.env when none are given, and parses
// the environment into a T. Missing .env files are not an error; variables
// already set in the environment win over the file.
func Load[T any](files ...string) (*T, error) {
	_ = godotenv.Load(files...)

	cfg := new(T)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}
