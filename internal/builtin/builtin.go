// Package builtin registers the tools compiled into the suite and seeds their plugin
// folders into the discovery root.
package builtin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/toolsuite/internal/builtin/pomodoro"
	"github.com/ayusman/toolsuite/internal/builtin/qrgen"
	"github.com/ayusman/toolsuite/internal/builtin/renamer"
	"github.com/ayusman/toolsuite/internal/logging"
	"github.com/ayusman/toolsuite/internal/plugin"
)

// Tool describes one built-in tool and the plugin folder seeded for it.
type Tool struct {
	Folder   string
	Key      string
	Metadata plugin.Metadata
	Factory  plugin.Factory
}

// Tools lists every built-in tool.
func Tools() []Tool {
	return []Tool{
		{
			Folder: "IllegalCharacterReplacement",
			Key:    renamer.Name,
			Metadata: plugin.Metadata{
				Name:        "Illegal Character Replacement",
				Alias:       "ICRT",
				Main:        renamer.Name + plugin.BuiltinExt,
				Version:     "1.0.0",
				Author:      "toolsuite",
				Description: "Find and rename files whose names contain illegal characters.",
			},
			Factory: func(plugin.Descriptor) plugin.Loaded { return renamer.New() },
		},
		{
			Folder: "Pomodoro",
			Key:    pomodoro.Name,
			Metadata: plugin.Metadata{
				Name:        "Pomodoro",
				Alias:       "POMO",
				Main:        pomodoro.Name + plugin.BuiltinExt,
				Version:     "1.0.0",
				Author:      "toolsuite",
				Description: "Work and break countdown timer with notes.",
			},
			Factory: func(d plugin.Descriptor) plugin.Loaded { return pomodoro.New(d.Dir) },
		},
		{
			Folder: "QRCodeGenerator",
			Key:    qrgen.Name,
			Metadata: plugin.Metadata{
				Name:        "QR Code Generator",
				Alias:       "QRCG",
				Main:        qrgen.Name + plugin.BuiltinExt,
				Version:     "1.0.0",
				Author:      "toolsuite",
				Description: "Generate QR codes and save them as PNG images.",
			},
			Factory: func(d plugin.Descriptor) plugin.Loaded { return qrgen.New(d.Dir) },
		},
	}
}

// Register adds every built-in factory to r.
func Register(r *plugin.Registry) error {
	for _, t := range Tools() {
		if err := r.Register(t.Key, t.Factory); err != nil {
			return err
		}
	}
	return nil
}

// Seed writes a plugin folder for each built-in tool that root does not contain yet and
// returns the folders it created. Existing folders are left alone.
func Seed(root string, log hclog.Logger) ([]string, error) {
	log = logging.OrNull(log)

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create plugin directory: %w", err)
	}

	created := []string{}
	for _, t := range Tools() {
		dir := filepath.Join(root, t.Folder)
		if _, err := os.Stat(dir); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return created, err
		}

		if err := writeTool(dir, t); err != nil {
			os.RemoveAll(dir)
			return created, fmt.Errorf("seed %s: %w", t.Folder, err)
		}
		log.Info("seeded built-in plugin", "dir", dir)
		created = append(created, dir)
	}
	return created, nil
}

func writeTool(dir string, t Tool) error {
	if err := os.Mkdir(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(t.Metadata, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, plugin.MetadataFile), data, 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, t.Metadata.Main), []byte(t.Key+"\n"), 0644)
}
