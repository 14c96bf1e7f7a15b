package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "tides"), ExpandHome("~/tides"))
	assert.Equal(t, home+"/data/tides", ExpandHome("${HOME}/data/tides"))
	assert.Equal(t, "/var/lib/tides", ExpandHome("/var/lib/tides"))
}

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.NotEmpty(t, cfg.Storage.Path)
}

func TestLoadConfigStoragePathFromEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := filepath.Join(t.TempDir(), "custom")
	t.Setenv("TIDES_STORAGE_PATH", dir)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Storage.Path)
}

func TestLoadConfigExpandsHomeToken(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("TIDES_STORAGE_PATH", "~/tides_test_data")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tides_test_data"), cfg.Storage.Path)
}

func TestLoadConfigFromFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "storage:\n  path: " + filepath.Join(dir, "records") + "\nserver:\n  transport: http\n  addr: \":9090\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	cfg, err := LoadConfig(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "records"), cfg.Storage.Path)
	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}
