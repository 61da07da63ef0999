package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writePlugin creates root/folder with the given metadata (skipped when empty) and files.
// Files ending in .sh are made executable.
func writePlugin(t *testing.T, root, folder, metadata string, files map[string]string) string {
	t.Helper()

	dir := filepath.Join(root, folder)
	require.NoError(t, os.MkdirAll(dir, 0755))

	if metadata != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFile), []byte(metadata), 0644))
	}

	for name, content := range files {
		mode := os.FileMode(0644)
		if filepath.Ext(name) == ".sh" {
			mode = 0755
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), mode))
	}

	return dir
}
