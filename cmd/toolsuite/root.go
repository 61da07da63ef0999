package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/ayusman/toolsuite/internal/app"
	"github.com/ayusman/toolsuite/internal/config"
	"github.com/ayusman/toolsuite/internal/logging"
	"github.com/ayusman/toolsuite/internal/store"
)

// globalFlags override values from the configuration file when set.
type globalFlags struct {
	configPath string
	pluginDir  string
	dataDir    string
	logLevel   string
	logJSON    bool
	logDir     string
}

func newRootCommand(version string) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "toolsuite",
		Short: "Tool Suite - a host for small desktop tool plugins",
		Long: `Tool Suite discovers tool plugins in a plugin directory and mounts one at a time
into a single host window.

A plugin is a folder holding metadata.json and an entry file: a Lua script, an
executable speaking JSON on stdin/stdout, or a built-in tool.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.DefaultPath(), "configuration file")
	pf.StringVar(&flags.pluginDir, "plugins", "", "plugin directory (overrides plugin_dir)")
	pf.StringVar(&flags.dataDir, "data", "", "data directory (overrides data_dir)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.BoolVar(&flags.logJSON, "log-json", false, "log in JSON format")
	pf.StringVar(&flags.logDir, "log-dir", "", "session log directory (overrides log_dir)")

	rootCmd.AddCommand(newRunCommand(flags))
	rootCmd.AddCommand(newServeCommand(flags))
	rootCmd.AddCommand(newListCommand(flags))
	rootCmd.AddCommand(newLaunchCommand(flags))
	rootCmd.AddCommand(newSeedCommand(flags))
	rootCmd.AddCommand(newMovePluginsCommand(flags))

	return rootCmd
}

// load reads the configuration file and applies flag overrides.
func (f *globalFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	if f.pluginDir != "" {
		cfg.PluginDir = f.pluginDir
	}
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.logDir != "" {
		cfg.LogDir = f.logDir
	}
	if cmd.Flags().Changed("log-json") {
		cfg.LogJSON = f.logJSON
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger creates the suite logger with its session log file. The returned function
// closes the file.
func newLogger(cfg *config.Config) (hclog.Logger, func(), error) {
	log, f, err := logging.NewSession(logging.Options{
		Level: cfg.LogLevel,
		JSON:  cfg.LogJSON,
		Dir:   cfg.LogDir,
	})
	if err != nil {
		return nil, nil, err
	}
	if f == nil {
		return log, func() {}, nil
	}
	return log, func() { f.Close() }, nil
}

// openApp opens the store and builds the application. The returned cleanup stops
// the application and closes the store.
func openApp(cfg *config.Config, log hclog.Logger) (*app.App, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	a, err := app.New(app.Config{Settings: cfg, Store: st, Logger: log})
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	cleanup := func() {
		a.Stop()
		st.Close()
	}
	return a, cleanup, nil
}

// findWebDir searches for the window's static files in common locations.
// It checks: "web", "../web", "../../web", and <config dir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	configWebDir := filepath.Join(config.Dir(), "web")
	if info, err := os.Stat(configWebDir); err == nil && info.IsDir() {
		return configWebDir
	}

	return ""
}
