package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/toolsuite/internal/builtin"
	"github.com/ayusman/toolsuite/internal/config"
)

func newListCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}

			log, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			a, cleanup, err := openApp(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			catalog := a.Plugins()
			if len(catalog) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No plugins found in %s\n", cfg.PluginDir)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tALIAS\tVERSION\tENTRY\tDIR")
			for _, d := range catalog {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Name, d.Alias, d.Version, d.EntryFile, d.Dir)
			}
			return w.Flush()
		},
	}
}

func newLaunchCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "launch <name>",
		Short: "Mount a plugin and print its widget tree",
		Long: `Load the plugin whose name or alias matches, build its UI and print the
resulting widget tree as JSON. Load failures are reported with their kind.`,
		Example: `  # Mount the built-in timer
  toolsuite launch POMO`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			cfg.Watch = false

			log, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			a, cleanup, err := openApp(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.Launch(args[0]); err != nil {
				return err
			}

			out, err := json.MarshalIndent(a.Host().Snapshot(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newSeedCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the built-in plugin folders into the plugin directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}

			log, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			created, err := builtin.Seed(cfg.PluginDir, log)
			if err != nil {
				return err
			}
			if len(created) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Built-in plugins already present")
				return nil
			}
			for _, dir := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", dir)
			}
			return nil
		},
	}
}

func newMovePluginsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "move-plugins <dir>",
		Short: "Move the plugin folders to a new directory",
		Long: `Move every plugin folder from the current plugin directory into dir and save
dir as plugin_dir in the configuration file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			cfg.Watch = false

			log, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			a, cleanup, err := openApp(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			moveErr := a.MovePlugins(args[0])
			if err := savePluginDir(flags.configPath, cfg.PluginDir); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Plugin directory is now %s (%d plugins)\n", cfg.PluginDir, len(a.Plugins()))
			return moveErr
		},
	}
}

// savePluginDir stores dir as plugin_dir in the configuration file. Flag overrides of
// other settings are not written.
func savePluginDir(path, dir string) error {
	saved, err := config.Load(path)
	if err != nil {
		return err
	}
	saved.PluginDir = dir
	return saved.Save(path)
}
