package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// envFile is read if present. Variables already set in the process
// environment take precedence over the file.
var envFile = ".env.local"

// parseEnv overlays Config with environment variables, after loading envFile.
// Unset variables leave the current values untouched.
func parseEnv(cfg *Config) error {
	_ = godotenv.Load(envFile)

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorConfig, err)
	}
	return nil
}
