package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, filepath.Join(Dir(), "plugins"), cfg.PluginDir)
	assert.Equal(t, 5*time.Second, cfg.ExecTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, filepath.Join(Dir(), "logs"), cfg.LogDir)
	assert.True(t, cfg.Watch)
	assert.True(t, cfg.RestoreLast)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join(cfg.DataDir, "toolsuite.db"), cfg.DBPath())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
plugin_dir: /opt/tools
listen_addr: ":9090"
exec_timeout: 750ms
log_level: debug
watch: false
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/tools", cfg.PluginDir)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 750*time.Millisecond, cfg.ExecTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Watch)
	assert.True(t, cfg.RestoreLast, "unset keys keep their default")
}

func TestLoad_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("plugin_dir: ~/tools\nlog_dir: ~/tools/logs\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tools"), cfg.PluginDir)
	assert.Equal(t, filepath.Join(home, "tools", "logs"), cfg.LogDir)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "plugin_dir: [unterminated"},
		{"bad duration", "exec_timeout: soon"},
		{"negative timeout", "exec_timeout: -1s"},
		{"unknown level", "log_level: loud"},
		{"empty listen addr", `listen_addr: ""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.PluginDir = "/srv/plugins"
	cfg.ExecTimeout = 2 * time.Second
	cfg.LogJSON = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
