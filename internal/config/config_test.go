package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	dir := t.TempDir()
	if yaml != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	}
	v.SetConfigName("config")
	v.AddConfigPath(dir)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(newTestViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "roomforge-api", cfg.App.Name)
	assert.Equal(t, int64(64<<20), cfg.App.MaxBodyBytes)
	assert.Equal(t, 3, cfg.Upload.Window)
	assert.Equal(t, 3, cfg.Upload.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Upload.BaseBackoff)
	assert.Equal(t, 500*time.Millisecond, cfg.Upload.InterChunkDelay)
	assert.Equal(t, time.Hour, cfg.Signing.DefaultTTL)
	assert.Equal(t, 4*time.Hour, cfg.Signing.DownloadTTL)
	assert.False(t, cfg.S3.Configured())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	t.Setenv("ROOMFORGE_S3_BUCKET", "from-env")

	cfg, err := load(newTestViper(t, `
s3:
  region: eu-west-1
  bucket: from-file
  access_key: AKID
  secret_key: SECRET
upload:
  window: 5
`))
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", cfg.S3.Region)
	assert.Equal(t, "from-env", cfg.S3.Bucket)
	assert.Equal(t, 5, cfg.Upload.Window)
	assert.True(t, cfg.S3.Configured())
}

func TestLoad_InvalidWindow(t *testing.T) {
	_, err := load(newTestViper(t, "upload:\n  window: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload.window")
}
