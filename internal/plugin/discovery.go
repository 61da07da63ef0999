package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/toolsuite/internal/logging"
)

// Discover scans root for plugin folders and returns their descriptors in directory
// listing order. A missing root is created and yields an empty catalog. Folders without
// metadata are skipped silently; folders with unreadable or malformed metadata are
// skipped with a warning so one bad plugin never aborts the scan.
func Discover(root string, log hclog.Logger) ([]Descriptor, error) {
	log = logging.OrNull(log)

	// Descriptors carry absolute directories so entry paths resolve from any cwd.
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	info, err := os.Stat(root)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(root, 0755); err != nil {
			log.Warn("cannot create plugin directory", "dir", root, "error", err)
		}
		return []Descriptor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat plugin directory: %w", err)
	}
	if !info.IsDir() {
		log.Warn("plugin directory is not a directory", "dir", root)
		return []Descriptor{}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read plugin directory: %w", err)
	}

	catalog := make([]Descriptor, 0, len(entries))
	for _, entry := range entries {
		if !isDir(root, entry) {
			continue
		}

		desc, err := ReadDescriptor(filepath.Join(root, entry.Name()))
		if errors.Is(err, ErrNoMetadata) {
			continue
		}
		if err != nil {
			log.Warn("skipping plugin", "dir", entry.Name(), "error", err)
			continue
		}

		catalog = append(catalog, desc)
	}

	log.Debug("plugin scan complete", "dir", root, "plugins", len(catalog))
	return catalog, nil
}

// isDir reports whether entry is a directory, following symlinks.
func isDir(root string, entry os.DirEntry) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.IsDir()
	}
	info, err := os.Stat(filepath.Join(root, entry.Name()))
	return err == nil && info.IsDir()
}

// ReadDescriptor reads dir/metadata.json and applies defaults for missing fields.
func ReadDescriptor(dir string) (Descriptor, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if errors.Is(err, os.ErrNotExist) {
		return Descriptor{}, ErrNoMetadata
	}
	if err != nil {
		return Descriptor{}, fmt.Errorf("read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Descriptor{}, fmt.Errorf("parse metadata: %w", err)
	}

	desc := Descriptor{
		Name:         meta.Name,
		Alias:        meta.Alias,
		Dir:          dir,
		EntryFile:    meta.Main,
		Version:      meta.Version,
		Author:       meta.Author,
		Description:  meta.Description,
		Requirements: meta.Requirements,
	}
	if desc.Name == "" {
		desc.Name = filepath.Base(dir)
	}
	if desc.EntryFile == "" {
		desc.EntryFile = meta.Entry
	}
	if desc.EntryFile == "" {
		desc.EntryFile = DefaultEntryFile
	}

	return desc, nil
}

// Find returns the first descriptor named key in scan order, falling back to the first
// alias match.
func Find(catalog []Descriptor, key string) (Descriptor, bool) {
	for _, d := range catalog {
		if d.Name == key {
			return d, true
		}
	}
	for _, d := range catalog {
		if d.Alias != "" && d.Alias == key {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Manager keeps the most recent catalog of a plugin directory for the front-ends.
type Manager struct {
	pluginDir string
	log       hclog.Logger
	catalog   []Descriptor
	mu        sync.RWMutex
}

// NewManager creates a new plugin Manager for the given plugin directory.
func NewManager(pluginDir string, log hclog.Logger) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		log:       logging.OrNull(log),
	}
}

// Discover rescans the plugin directory and replaces the catalog.
func (m *Manager) Discover() ([]Descriptor, error) {
	catalog, err := Discover(m.PluginDir(), m.log)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.catalog = catalog
	m.mu.Unlock()

	return m.List(), nil
}

// Get returns a plugin by name or alias.
// Returns ErrPluginNotFound if the plugin does not exist.
func (m *Manager) Get(name string) (Descriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	desc, ok := Find(m.catalog, name)
	if !ok {
		return Descriptor{}, ErrPluginNotFound
	}
	return desc, nil
}

// List returns a copy of the catalog in scan order.
func (m *Manager) List() []Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Descriptor, len(m.catalog))
	copy(out, m.catalog)
	return out
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pluginDir
}

// SetPluginDir points the manager at another directory. The catalog is kept until the
// next Discover.
func (m *Manager) SetPluginDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pluginDir = dir
}
