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

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "data/catalyst.db", cfg.DatabasePath)
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, ":8081", cfg.Addr())
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, time.Minute, cfg.SyncInterval)
	assert.Equal(t, "fs", cfg.Blob.Driver)
}

func TestFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "catalyst.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
siteTitle: Catalyst AI Club
port: 9000
frontendURLs:
  - https://catalyst.example.com
blob:
  driver: s3
  s3Bucket: exports
`), 0o600))
	t.Setenv("CATALYST_PORT", "9100")
	t.Setenv("CATALYST_BLOB_S3REGION", "eu-west-1")

	cfg, err := load(viper.New(), file)
	require.NoError(t, err)
	assert.Equal(t, "Catalyst AI Club", cfg.SiteTitle)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, []string{"https://catalyst.example.com"}, cfg.FrontendURLs)
	assert.Equal(t, "s3", cfg.Blob.Driver)
	assert.Equal(t, "exports", cfg.Blob.S3Bucket)
	assert.Equal(t, "eu-west-1", cfg.Blob.S3Region)
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLogging(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "catalyst.log")
	closeLog, err := Logging("debug", file)
	require.NoError(t, err)
	closeLog()
	_, err = os.Stat(file)
	assert.NoError(t, err)

	_, err = Logging("loud", "")
	assert.Error(t, err)
}
