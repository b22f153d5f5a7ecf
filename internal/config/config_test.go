package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[server]
http_port = 8090

[database]
host = "localhost"
user = "scheduler"
password = "secret"
dbname = "scheduling"

[logs]
level = "debug"

[redis]
enabled = true
addr = "localhost:6379"

[scheduling]
slot_granularity_minutes = 15

[catalog_service]
url = "http://catalog:8080"

[staff_service]
url = "http://staff:8080"

[client_service]
url = "http://clients:8080"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.HTTPPort)
	assert.Equal(t, 10, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 15, cfg.Scheduling.SlotGranularityMinutes)
	assert.Equal(t, 31, cfg.Scheduling.MaxRangeDays)
	assert.Equal(t, 5000, cfg.Redis.LockTTLMs)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 5, cfg.StaffService.Timeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "from-env")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("HTTP_PORT", "9000")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "warn", cfg.Logs.Level)
	assert.Equal(t, 9000, cfg.Server.HTTPPort)
}

func TestLoad_InvalidPortEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "eighty")

	_, err := Load(writeConfig(t, sampleConfig))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	cfg.Scheduling.SlotGranularityMinutes = 1
	cfg.StaffService.URL = ""
	cfg.Redis.Addr = ""
	cfg.Scheduling.Timezone = "Mars/Olympus"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slot_granularity_minutes")
	assert.Contains(t, err.Error(), "staff_service.url")
	assert.Contains(t, err.Error(), "redis.addr")
	assert.Contains(t, err.Error(), "scheduling.timezone")
}

func TestSchedulingLocation(t *testing.T) {
	loc, err := SchedulingConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = SchedulingConfig{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoad_RateLimitTrustProxyDefaultsOff(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.False(t, cfg.RateLimit.TrustProxy)

	cfg, err = Load(writeConfig(t, sampleConfig+"\n[rate_limit]\nenabled = true\ntrust_proxy = true\n"))
	require.NoError(t, err)
	assert.True(t, cfg.RateLimit.TrustProxy)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5433, User: "u", Password: "p", DBName: "db", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5433 user=u password=p dbname=db sslmode=disable", d.DSN())
}
