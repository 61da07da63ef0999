package builtin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/toolsuite/internal/builtin/pomodoro"
	"github.com/ayusman/toolsuite/internal/builtin/qrgen"
	"github.com/ayusman/toolsuite/internal/builtin/renamer"
	"github.com/ayusman/toolsuite/internal/plugin"
	"github.com/ayusman/toolsuite/internal/ui"
)

func TestRegister(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, Register(r))
	assert.Equal(t, []string{pomodoro.Name, qrgen.Name, renamer.Name}, r.Names())

	assert.Error(t, Register(r), "registering twice is rejected")
}

func TestSeed(t *testing.T) {
	root := filepath.Join(t.TempDir(), "plugins")

	created, err := Seed(root, nil)
	require.NoError(t, err)
	assert.Len(t, created, 3)

	catalog, err := plugin.Discover(root, nil)
	require.NoError(t, err)
	require.Len(t, catalog, 3)

	desc, ok := plugin.Find(catalog, "ICRT")
	require.True(t, ok)
	assert.Equal(t, "Illegal Character Replacement", desc.Name)
	assert.Equal(t, "renamer.builtin", desc.EntryFile)
	assert.Equal(t, "1.0.0", desc.Version)

	again, err := Seed(root, nil)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestSeed_KeepsExistingFolders(t *testing.T) {
	root := t.TempDir()
	custom := filepath.Join(root, "Pomodoro")
	require.NoError(t, os.Mkdir(custom, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(custom, plugin.MetadataFile), []byte(`{"name":"My Timer"}`), 0644))

	created, err := Seed(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "IllegalCharacterReplacement"),
		filepath.Join(root, "QRCodeGenerator"),
	}, created)

	data, err := os.ReadFile(filepath.Join(custom, plugin.MetadataFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"My Timer"}`, string(data))
}

func TestSeededPluginsLoad(t *testing.T) {
	root := t.TempDir()
	_, err := Seed(root, nil)
	require.NoError(t, err)

	registry := plugin.NewRegistry()
	require.NoError(t, Register(registry))
	loader := plugin.NewLoader(plugin.WithRegistry(registry))

	catalog, err := plugin.Discover(root, nil)
	require.NoError(t, err)

	for _, desc := range catalog {
		t.Run(desc.Name, func(t *testing.T) {
			loaded, err := loader.Load(desc)
			require.NoError(t, err)
			defer loaded.Close()

			mount := ui.NewContainer(desc.Name)
			w, err := loaded.Main(mount, nil)
			require.NoError(t, err)
			require.NotNil(t, w)
			require.NoError(t, mount.Add(w))
			mount.Release()
			assert.True(t, w.Released())
		})
	}

	assert.FileExists(t, filepath.Join(root, "Pomodoro", pomodoro.SettingsFile))
}
