package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 1200*time.Millisecond, cfg.Delays.Login)
	assert.Equal(t, 2*time.Second, cfg.Delays.Payment)
}

func TestLoadOverridesAndExpandsEnv(t *testing.T) {
	t.Setenv("HOTELGRAM_TEST_SECRET", "s3cr3t")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
app:
  port: 8081
session:
  driver: redis
  jwt_secret: ${HOTELGRAM_TEST_SECRET}
delays:
  payment: 10ms
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.App.Port)
	assert.Equal(t, "HOTELGRAM", cfg.App.Name)
	assert.Equal(t, "redis", cfg.Session.Driver)
	assert.Equal(t, "s3cr3t", cfg.Session.JWTSecret)
	assert.Equal(t, 10*time.Millisecond, cfg.Delays.Payment)
	assert.Equal(t, 1200*time.Millisecond, cfg.Delays.Catalog)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [port"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
