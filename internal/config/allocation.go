package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"
	_ "time/tzdata"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AllocationConfig is the operator-tunable lead allocation policy.
type AllocationConfig struct {
	BulkTimeout    time.Duration `mapstructure:"bulkTimeout"`
	BulkLockTTL    time.Duration `mapstructure:"bulkLockTTL"`
	AssignOnCreate bool          `mapstructure:"assignOnCreate"`
	ResetTimezone  string        `mapstructure:"resetTimezone"`
}

func DefaultAllocationConfig() AllocationConfig {
	return AllocationConfig{
		BulkTimeout:    2 * time.Minute,
		BulkLockTTL:    5 * time.Minute,
		AssignOnCreate: true,
		ResetTimezone:  "UTC",
	}
}

// Location resolves ResetTimezone, falling back to UTC.
func (c AllocationConfig) Location() *time.Location {
	name := strings.TrimSpace(c.ResetTimezone)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

type AllocationConfigHolder struct {
	current atomic.Value // holds AllocationConfig
}

// NewStaticAllocationConfigHolder returns a holder pinned to cfg.
func NewStaticAllocationConfigHolder(cfg AllocationConfig) *AllocationConfigHolder {
	holder := &AllocationConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewAllocationConfigHolder() (*AllocationConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("allocation")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/salesdesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SALESDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultAllocationConfig()
	v.SetDefault("allocation.bulkTimeout", defaults.BulkTimeout)
	v.SetDefault("allocation.bulkLockTTL", defaults.BulkLockTTL)
	v.SetDefault("allocation.assignOnCreate", defaults.AssignOnCreate)
	v.SetDefault("allocation.resetTimezone", defaults.ResetTimezone)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg AllocationConfig
	if err := v.UnmarshalKey("allocation", &cfg); err != nil {
		return nil, err
	}
	if err := validateAllocationConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticAllocationConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AllocationConfig
		if err := v.UnmarshalKey("allocation", &updated); err != nil {
			log.Printf("[allocation-config] reload failed: %v", err)
			return
		}
		if err := validateAllocationConfig(updated); err != nil {
			log.Printf("[allocation-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[allocation-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *AllocationConfigHolder) Get() AllocationConfig {
	if h == nil {
		return DefaultAllocationConfig()
	}
	cfg, ok := h.current.Load().(AllocationConfig)
	if !ok {
		return DefaultAllocationConfig()
	}
	return cfg
}

func validateAllocationConfig(cfg AllocationConfig) error {
	if cfg.BulkTimeout <= 0 {
		return errors.New("allocation.bulkTimeout must be positive")
	}
	if cfg.BulkLockTTL < cfg.BulkTimeout {
		return errors.New("allocation.bulkLockTTL must not be shorter than allocation.bulkTimeout")
	}
	if _, err := time.LoadLocation(strings.TrimSpace(cfg.ResetTimezone)); err != nil {
		return errors.New("allocation.resetTimezone is not a valid IANA zone")
	}
	return nil
}
