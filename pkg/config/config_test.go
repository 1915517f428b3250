package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "exam_system", cfg.Database.Name)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "exam-scheduler", cfg.Redis.KeyPrefix)
	assert.Equal(t, 5*time.Second, cfg.Redis.DialTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.LockTTL)
	assert.Equal(t, int64(0), cfg.Scheduler.RandomSeed)
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SCHEDULER_RANDOM_SEED", "42")
	t.Setenv("SCHEDULER_JOB_TTL", "15m")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("LOG_FILE", "/tmp/exam.log")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Scheduler.RandomSeed)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.JobTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "/tmp/exam.log", cfg.Log.File)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("", time.Second))
	assert.Equal(t, time.Second, parseDuration("soon", time.Second))
	assert.Equal(t, 2*time.Minute, parseDuration("2m", time.Second))
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
