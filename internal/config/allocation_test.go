package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocationConfigHolderFallsBackToDefaults(t *testing.T) {
	var holder *AllocationConfigHolder
	assert.Equal(t, DefaultAllocationConfig(), holder.Get())
	assert.Equal(t, DefaultAllocationConfig(), (&AllocationConfigHolder{}).Get())
}

func TestNewAllocationConfigHolderWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	holder, err := NewAllocationConfigHolder()
	require.NoError(t, err)
	assert.Equal(t, DefaultAllocationConfig(), holder.Get())
}

func TestValidateAllocationConfig(t *testing.T) {
	cfg := DefaultAllocationConfig()
	require.NoError(t, validateAllocationConfig(cfg))

	bad := cfg
	bad.BulkTimeout = 0
	assert.Error(t, validateAllocationConfig(bad))

	bad = cfg
	bad.BulkLockTTL = time.Second
	assert.Error(t, validateAllocationConfig(bad))

	bad = cfg
	bad.ResetTimezone = "Mars/Olympus"
	assert.Error(t, validateAllocationConfig(bad))
}

func TestAllocationConfigLocation(t *testing.T) {
	cfg := AllocationConfig{ResetTimezone: "Asia/Ho_Chi_Minh"}
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Location().String())

	cfg.ResetTimezone = ""
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"reset_daily_counters", "auto_distribute"}, parseList(" reset_daily_counters, ,auto_distribute "))
	assert.Empty(t, parseList(""))
}
