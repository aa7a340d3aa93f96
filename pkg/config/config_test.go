package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func validConfig() *Config {
	return &Config{
		Env:  EnvDevelopment,
		Port: 8080,
		Allocation: AllocationConfig{
			FillPolicy:   FillPolicySequential,
			LockTimeout:  5 * time.Second,
			LockTTL:      2 * time.Minute,
			WriteTimeout: 30 * time.Second,
		},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateLockTTLCoversRun(t *testing.T) {
	cfg := validConfig()
	cfg.Allocation.LockTTL = 20 * time.Second

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALLOCATION_LOCK_TTL")

	cfg.Allocation.LockTTL = 35 * time.Second
	assert.Error(t, cfg.Validate(), "a lease equal to the run budget can still lapse")

	cfg.Allocation.LockTTL = 36 * time.Second
	assert.NoError(t, cfg.Validate())
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Port = 0
	cfg.Allocation.FillPolicy = "random"
	cfg.Allocation.LockTTL = time.Second

	err := cfg.Validate()
	assert.Len(t, multierr.Errors(err), 3)
}
