// Package testdata provides plugin folder fixtures for tests.
package testdata

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

//go:embed plugins
var pluginsFS embed.FS

// Fixture plugin names. BadMetadata is skipped by discovery.
const (
	Greeter     = "Greeter"
	Counter     = "Counter"
	NoMain      = "NoMain"
	BadMetadata = "BadMetadata"
)

// CopyPlugins writes every fixture plugin folder into a new temporary directory and
// returns its path.
func CopyPlugins(t testing.TB) string {
	t.Helper()

	dst := t.TempDir()
	err := fs.WalkDir(pluginsFS, "plugins", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel("plugins", filepath.FromSlash(path))
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		data, err := pluginsFS.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
	if err != nil {
		t.Fatalf("copy fixture plugins: %v", err)
	}

	return dst
}

// WritePlugin creates root/folder with metadata and files. Entries ending in .sh are
// made executable.
func WritePlugin(t testing.TB, root, folder, metadata string, files map[string]string) string {
	t.Helper()

	dir := filepath.Join(root, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("create plugin folder: %v", err)
	}
	if metadata != "" {
		if err := os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(metadata), 0644); err != nil {
			t.Fatalf("write metadata: %v", err)
		}
	}
	for name, content := range files {
		mode := os.FileMode(0644)
		if filepath.Ext(name) == ".sh" {
			mode = 0755
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), mode); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
