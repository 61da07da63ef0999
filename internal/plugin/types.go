// Package plugin discovers tool plugins on disk and loads them for the lifecycle host.
package plugin

import (
	"encoding/json"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/toolsuite/internal/ui"
)

// Plugin folder conventions.
const (
	// MetadataFile is the per-plugin metadata file name.
	MetadataFile = "metadata.json"
	// DefaultEntryFile is used when metadata does not name an entry file.
	DefaultEntryFile = "main.lua"
)

// Metadata is the on-disk shape of metadata.json. Unknown keys are ignored.
type Metadata struct {
	Name         string `json:"name,omitempty"`
	Alias        string `json:"alias,omitempty"`
	Main         string `json:"main,omitempty"`
	Entry        string `json:"entry,omitempty"`
	Version      string `json:"version,omitempty"`
	Author       string `json:"author,omitempty"`
	Description  string `json:"description,omitempty"`
	Requirements string `json:"requirements,omitempty"`
}

// Descriptor describes one discoverable plugin. Descriptors are values: a fresh set is
// built on every scan and none is ever mutated in place.
type Descriptor struct {
	Name         string `json:"name"`
	Alias        string `json:"alias,omitempty"`
	Dir          string `json:"dir"`
	EntryFile    string `json:"entry_file"`
	Version      string `json:"version,omitempty"`
	Author       string `json:"author,omitempty"`
	Description  string `json:"description,omitempty"`
	Requirements string `json:"requirements,omitempty"`
}

// EntryPath returns the absolute location of the entry file.
func (d Descriptor) EntryPath() string {
	return filepath.Join(d.Dir, d.EntryFile)
}

// Loaded is a plugin module ready to build its interface.
type Loaded interface {
	// Main builds the plugin UI inside host. It returns the widget to mount under
	// host, or nil when it attached its widgets to host directly.
	Main(host *ui.Widget, log hclog.Logger) (*ui.Widget, error)
	// Close releases the module's runtime resources.
	Close() error
}

// MainFunc adapts a plain function into a Loaded module with nothing to close.
type MainFunc func(host *ui.Widget, log hclog.Logger) (*ui.Widget, error)

// Main calls f.
func (f MainFunc) Main(host *ui.Widget, log hclog.Logger) (*ui.Widget, error) {
	return f(host, log)
}

// Close does nothing.
func (f MainFunc) Close() error { return nil }

// Request is sent to an executable plugin on stdin.
type Request struct {
	Action string            `json:"action"`
	Plugin string            `json:"plugin"`
	Values map[string]string `json:"values,omitempty"`
}

// Response is read from an executable plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}
