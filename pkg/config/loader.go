// Package config wraps env tag parsing for configuration structs.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from process environment variables using `env` struct
// tags. cfg must be a pointer to a struct; fields without a matching
// variable fall back to their `envDefault` value.
//
//	type Config struct {
//	    StorageDir string `env:"STORAGE_DIR" envDefault:"./uploads"`
//	    CacheTTL   time.Duration `env:"CACHE_TTL" envDefault:"5m"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
