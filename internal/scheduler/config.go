package scheduler

import (
	"time"

	"github.com/smallbiznis/salesdesk/internal/config"
)

const (
	JobResetDailyCounters = "reset_daily_counters"
	JobAutoDistribute     = "auto_distribute"
)

// Config controls the scheduler loop and per-job timeouts.
type Config struct {
	RunInterval  time.Duration
	ResetTimeout time.Duration
	// EnabledJobs limits which jobs run. Empty means the default set, which
	// leaves auto_distribute off.
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:  time.Minute,
		ResetTimeout: 30 * time.Second,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: cfg.Scheduler.RunInterval,
		EnabledJobs: cfg.Scheduler.Jobs,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = defaults.ResetTimeout
	}
	return c
}
