// Package config loads and saves the suite's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// AppName names the per-user configuration directory.
const AppName = "toolsuite"

// FileName is the configuration file name inside the configuration directory.
const FileName = "config.yaml"

// Config holds every user-tunable setting.
type Config struct {
	// PluginDir is the discovery root.
	PluginDir string `yaml:"plugin_dir"`
	// DataDir holds the SQLite database.
	DataDir string `yaml:"data_dir"`
	// WebDir serves the window's static files. Empty disables static serving.
	WebDir string `yaml:"web_dir,omitempty"`
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`
	// ExecTimeout bounds each call into an executable plugin.
	ExecTimeout time.Duration `yaml:"exec_timeout"`
	LogLevel    string        `yaml:"log_level"`
	LogJSON     bool          `yaml:"log_json"`
	// LogDir receives one log file per session. Empty logs to stderr only.
	LogDir string `yaml:"log_dir"`
	// Watch rescans the plugin root when its contents change.
	Watch bool `yaml:"watch"`
	// RestoreLast relaunches the last active plugin on start.
	RestoreLast bool `yaml:"restore_last"`
	// SeedBuiltins writes the built-in plugin folders into PluginDir when absent.
	SeedBuiltins bool `yaml:"seed_builtins"`
}

// Dir returns the per-user configuration directory.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "." + AppName
		}
		return filepath.Join(home, "."+AppName)
	}
	return filepath.Join(base, AppName)
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	return filepath.Join(Dir(), FileName)
}

// Default returns the built-in configuration.
func Default() *Config {
	dir := Dir()
	return &Config{
		PluginDir:    filepath.Join(dir, "plugins"),
		DataDir:      dir,
		ListenAddr:   "127.0.0.1:8080",
		ExecTimeout:  5 * time.Second,
		LogLevel:     "info",
		LogDir:       filepath.Join(dir, "logs"),
		Watch:        true,
		RestoreLast:  true,
		SeedBuiltins: true,
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.PluginDir = expandHome(cfg.PluginDir)
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.WebDir = expandHome(cfg.WebDir)
	cfg.LogDir = expandHome(cfg.LogDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes c to path, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.PluginDir == "" {
		return errors.New("plugin_dir is required")
	}
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.ListenAddr == "" {
		return errors.New("listen_addr is required")
	}
	if c.ExecTimeout <= 0 {
		return fmt.Errorf("exec_timeout must be positive, got %s", c.ExecTimeout)
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// DBPath returns the SQLite database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, AppName+".db")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
