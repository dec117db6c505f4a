package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulhamidalthaljy/CareConnect/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Session.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, int64(16<<20), cfg.Storage.MaxUploadBytes)
	assert.Equal(t, "careconnect_session", cfg.Session.CookieName)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CARECONNECT_DATABASE_DRIVER", "memory")
	t.Setenv("CARECONNECT_STORAGE_UPLOAD_ROOT", "/tmp/files")

	cfg, err := config.Load(writeConfig(t, "database:\n  driver: postgres\n"))
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "/tmp/files", cfg.Storage.UploadRoot)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	_, err := config.Load(writeConfig(t, "session:\n  driver: cookie\n"))
	assert.Error(t, err)
}

func TestJWTDriverNeedsSecret(t *testing.T) {
	_, err := config.Load(writeConfig(t, "session:\n  driver: jwt\n"))
	assert.Error(t, err)

	cfg, err := config.Load(writeConfig(t, "session:\n  driver: jwt\n  jwt_secret: s3cret\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Session.JWTSecret)
}

func TestDSN(t *testing.T) {
	d := config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())
}
