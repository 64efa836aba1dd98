package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"SERVER_HOST", "SERVER_PORT", "REDIS_ADDR", "DATABASE_DSN",
		"DISPATCHER_HEARTBEAT_INTERVAL", "DISPATCHER_DEAD_AFTER",
		"DISPATCHER_SWEEP_INTERVAL", "SOLVER_ABANDON_AFTER_ROUNDS",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, "", cfg.Database.DSN)
	assert.Equal(t, 30*time.Second, cfg.Dispatcher.HeartbeatInterval)
	assert.Equal(t, 90*time.Second, cfg.Dispatcher.DeadAfter)
	assert.Equal(t, 60*time.Second, cfg.Dispatcher.SweepInterval)
	assert.Equal(t, 10, cfg.Solver.AbandonAfterRound)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DISPATCHER_DEAD_AFTER", "2m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Dispatcher.DeadAfter)
}

func TestLoad_InvalidPortRejected(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
}

func TestMasterURL_Default(t *testing.T) {
	t.Setenv("MASTER_URL", "")
	assert.Equal(t, "http://localhost:8080", MasterURL())
}
