// Package config loads runtime configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting. All values have working defaults so a
// bare `go run ./cmd/server` starts a development instance.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string `env:"DB_PATH" envDefault:"benefits.db"`

	// Batch size used by the background scheduler's queue draining.
	ScanBatchSize int `env:"SCAN_BATCH_SIZE" envDefault:"10"`

	// How often the scheduler reclaims stale claims and drains a batch.
	ScanInterval time.Duration `env:"SCAN_INTERVAL" envDefault:"1h"`

	// Age after which a processing job's claim is considered abandoned.
	StaleClaimAge time.Duration `env:"STALE_CLAIM_AGE" envDefault:"15m"`

	// Attempt cap applied when failed jobs are requeued.
	ScanMaxAttempts int `env:"SCAN_MAX_ATTEMPTS" envDefault:"3"`

	SchedulerEnabled bool `env:"SCAN_SCHEDULER_ENABLED" envDefault:"true"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}
