package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault_IsValidMemory(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, DriverMemory, c.Backend.Driver)
	assert.Equal(t, ":8080", c.Server.Addr())
	assert.Equal(t, 3*time.Second, c.Session.ResolveTimeout)
}

func TestApplyEnv_Overrides(t *testing.T) {
	c := Default()
	require.NoError(t, c.applyEnv(envMap(map[string]string{
		"PORT":                  "9090",
		"SUPABASE_URL":          "https://x.supabase.co",
		"SUPABASE_ANON_KEY":     "anon",
		"SESSION_SECURE_COOKIE": "true",
		"LOG_LEVEL":             "debug",
		"DEV_USERS":             "a@b.c:pw1, d@e.f:pw:2",
	})))
	require.NoError(t, c.Validate())

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, DriverSupabase, c.Backend.Driver)
	assert.True(t, c.Session.SecureCookie)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, []DevUser{{Email: "a@b.c", Password: "pw1"}, {Email: "d@e.f", Password: "pw:2"}}, c.Auth.DevUsers)
}

func TestApplyEnv_BadValues(t *testing.T) {
	c := Default()
	require.ErrorIs(t, c.applyEnv(envMap(map[string]string{"PORT": "x"})), ErrInvalid)

	c = Default()
	require.ErrorIs(t, c.applyEnv(envMap(map[string]string{"SESSION_SECURE_COOKIE": "maybe"})), ErrInvalid)

	_, err := ParseDevUsers("nobody")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestValidate_DriverRequirements(t *testing.T) {
	c := Default()
	c.Backend.Driver = DriverSupabase
	require.ErrorIs(t, c.Validate(), ErrInvalid)

	c = Default()
	c.Backend.Driver = DriverPostgres
	require.ErrorIs(t, c.Validate(), ErrInvalid)

	c = Default()
	c.Backend.DSN = "postgres://localhost/db"
	require.NoError(t, c.Validate())
	assert.Equal(t, DriverPostgres, c.Backend.Driver)

	c = Default()
	c.Backend.Driver = "mongo"
	require.ErrorIs(t, c.Validate(), ErrInvalid)
}

func TestLoad_YAMLFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7000
  public_base_url: https://zoo.example
session:
  resolve_timeout: 1500ms
scanner:
  idle_timeout: 30s
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	if _, set := os.LookupEnv("PORT"); !set {
		assert.Equal(t, 7000, c.Server.Port)
	}
	assert.Equal(t, 1500*time.Millisecond, c.Session.ResolveTimeout)
	assert.Equal(t, 30*time.Second, c.Scanner.IdleTimeout)
	assert.Equal(t, "animais.fotos", c.Backend.Supabase.PhotoBucket)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
