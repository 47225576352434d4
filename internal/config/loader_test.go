package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setSecrets(t *testing.T) {
	t.Setenv("APP_POSTGRES_USER", "testuser")
	t.Setenv("APP_POSTGRES_PASSWORD", "testpass")
	t.Setenv("APP_POSTGRES_DB", "testdb")
	t.Setenv("APP_AUTH_JWT_SECRET", "0123456789abcdef0123")
}

func TestLoad_FromYAMLAndEnv(t *testing.T) {
	yaml := `
app:
  name: projecthub-service
  version: 0.1.0
  env: test
  port: 18080
  frontend_url: http://localhost:3000

logger:
  level: info
  format: json
  output_target: stdout
  time_format: rfc3339

postgres:
  host: 127.0.0.1
  port: 5432
  sslmode: disable
  max_conns: 5
  min_conns: 1

auth:
  token_ttl: 2h
  cookie_secure: false

cors:
  allow_origins:
    - http://localhost:3000
    - https://app.example.com
`
	path := writeTempConfig(t, yaml)
	setSecrets(t)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 18080, cfg.App.Port)
	assert.Equal(t, "testuser", cfg.Postgres.User)
	assert.Equal(t, "testpass", cfg.Postgres.Password)
	assert.Equal(t, "testdb", cfg.Postgres.DBName)
	assert.Equal(t, "127.0.0.1", cfg.Postgres.Host)
	assert.Equal(t, int32(5), cfg.Postgres.MaxConns)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Auth.CookieSecure)
	assert.Equal(t, "token", cfg.Auth.CookieName)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "@every 15m", cfg.Jobs.InvitationSweepSpec)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeTempConfig(t, `
app:
  env: test
  port: 18080
`)
	setSecrets(t)
	t.Setenv("APP_APP_PORT", "19090")
	t.Setenv("APP_REDIS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 19090, cfg.App.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_MissingSecretsFails(t *testing.T) {
	path := writeTempConfig(t, `
app:
  env: test
  port: 18080
postgres:
  host: localhost
`)
	t.Setenv("APP_POSTGRES_USER", "")
	t.Setenv("APP_POSTGRES_PASSWORD", "")
	t.Setenv("APP_POSTGRES_DB", "")
	t.Setenv("APP_AUTH_JWT_SECRET", "")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ShortJWTSecretFails(t *testing.T) {
	path := writeTempConfig(t, "app:\n  env: test\n")
	setSecrets(t)
	t.Setenv("APP_AUTH_JWT_SECRET", "short")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
