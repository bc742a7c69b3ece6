package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	workdir := t.TempDir()
	t.Setenv("DIALOGIX_SYSTEM_WORKDIR", workdir)

	cfg := LoadConfig("")
	assert.Equal(t, "Dialogix", cfg.System.Appid)
	assert.Equal(t, workdir, cfg.System.Workdir)
	assert.Equal(t, 1816, cfg.Web.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)

	// LoadConfig creates the working directories
	for _, sub := range []string{"data", "metrics"} {
		info, err := os.Stat(filepath.Join(workdir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	workdir := t.TempDir()
	t.Setenv("DIALOGIX_SYSTEM_WORKDIR", workdir)

	cfile := filepath.Join(workdir, "dialogix.yml")
	data := `
system:
  appid: Dialogix
  location: UTC
  workdir: /tmp/overridden
web:
  host: 127.0.0.1
  port: 9090
  secret: testsecret
  jwt_expire: 2
database:
  type: sqlite
  name: dialogix_test
wppconnect:
  base_url: http://wpp.local:21465
`
	require.NoError(t, os.WriteFile(cfile, []byte(data), 0644))

	cfg := LoadConfig(cfile)
	assert.Equal(t, "UTC", cfg.System.Location)
	assert.Equal(t, 9090, cfg.Web.Port)
	assert.Equal(t, "testsecret", cfg.Web.Secret)
	assert.Equal(t, 2, cfg.Web.JwtExpire)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "http://wpp.local:21465", cfg.Wppconnect.BaseURL)
	// env override wins over the file
	assert.Equal(t, workdir, cfg.System.Workdir)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	workdir := t.TempDir()
	t.Setenv("DIALOGIX_SYSTEM_WORKDIR", workdir)
	t.Setenv("DIALOGIX_WEB_PORT", "8088")
	t.Setenv("DIALOGIX_DB_TYPE", "sqlite")
	t.Setenv("WPPCONNECT_BASE_URL", "http://provider:21465")
	t.Setenv("WPP_SECRET_KEY_FILE", "/run/secrets/wpp_token")

	cfg := LoadConfig("")
	assert.Equal(t, 8088, cfg.Web.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "http://provider:21465", cfg.Wppconnect.BaseURL)
	assert.Equal(t, "/run/secrets/wpp_token", cfg.Wppconnect.TokenFile)
}
