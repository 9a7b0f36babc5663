package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
entsoe:
  auth_token: "secret-token"
  country_code: "BE"
  country_timezone: "Europe/Brussels"

database:
  host: "db.internal"
  port: 5433
  name: "flexmeasures"
  user: "fm"
  password: "fm"

logging:
  level: "debug"
  format: "text"
`)

	config, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "secret-token", config.Entsoe.AuthToken)
	assert.Equal(t, "BE", config.Entsoe.CountryCode)
	assert.Equal(t, "Europe/Brussels", config.Entsoe.CountryTimezone)
	assert.Equal(t, "db.internal", config.Database.Host)
	assert.Equal(t, 5433, config.Database.Port)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "text", config.Logging.Format)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
entsoe:
  auth_token: "secret-token"
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "NL", config.Entsoe.CountryCode)
	assert.Equal(t, 5.0, config.Entsoe.RateLimit)
	assert.Equal(t, 5432, config.Database.Port)
	assert.Equal(t, "disable", config.Database.SSLMode)
	assert.Equal(t, "30 13-17 * * *", config.Scheduler.Cron)
	assert.Equal(t, 120, config.Scheduler.Timeout)
	assert.True(t, config.Metrics.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
}

func TestLoadWithEnvExpansion(t *testing.T) {
	t.Setenv("ENTSOE_AUTH_TOKEN", "from-env")
	t.Setenv("APP_DATABASE_HOST", "envhost")

	path := writeConfig(t, `
entsoe:
  auth_token: $ENTSOE_AUTH_TOKEN

database:
  host: $APP_DATABASE_HOST
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", config.Entsoe.AuthToken)
	assert.Equal(t, "envhost", config.Database.Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestTokenSelection(t *testing.T) {
	e := EntsoeConfig{AuthToken: "prod", AuthTokenTestServer: "test"}
	assert.Equal(t, "prod", e.Token())

	e.UseTestServer = true
	assert.Equal(t, "test", e.Token())
}

func TestConnString(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, Name: "fm", User: "u", Password: "p", SSLMode: "disable",
	}
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=fm sslmode=disable", d.ConnString())
}

func TestStringRedactsSecrets(t *testing.T) {
	c := Config{}
	c.Entsoe.AuthToken = "super-secret"
	c.Database.Password = "hunter2"

	out := c.String()
	assert.NotContains(t, out, "super-secret")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "***")
}
