package scheduler

import (
	"time"

	"github.com/rollcallhq/rollcall/internal/config"
)

// Config controls the reload scheduler.
type Config struct {
	// RunInterval is the periodic rescan cadence. Zero disables the loop;
	// reloads then only happen at startup and on demand.
	RunInterval    time.Duration
	ReloadOnStart  bool
	RestoreTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ReloadOnStart:  true,
		RestoreTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RestoreTimeout <= 0 {
		c.RestoreTimeout = defaults.RestoreTimeout
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval:   cfg.ReloadInterval,
		ReloadOnStart: cfg.ReloadOnStart,
	}
}
