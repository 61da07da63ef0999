package main

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/ayusman/toolsuite/internal/app"
	"github.com/ayusman/toolsuite/internal/config"
	"github.com/ayusman/toolsuite/internal/server"
	"github.com/ayusman/toolsuite/internal/tray"
)

func newRunCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the suite with its tray menu",
		Long: `Start the HTTP server, the plugin directory watcher and the system tray menu.

The tray lists every discovered plugin; picking one mounts it in place of the
active plugin. The window is served at the listen address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, flags, true)
		},
	}
}

func newServeCommand(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the suite without a tray menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, flags, false)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides listen_addr)")
	return cmd
}

func runSuite(cmd *cobra.Command, flags *globalFlags, withTray bool) error {
	cfg, err := flags.load(cmd)
	if err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		cfg.ListenAddr = f.Value.String()
	}
	if cfg.WebDir == "" {
		cfg.WebDir = findWebDir()
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

	if err := a.StartWatcher(); err != nil {
		log.Warn("plugin watcher disabled", "error", err)
	}
	if _, err := a.RestoreLast(); err != nil {
		log.Warn("restoring last plugin failed", "error", err)
	}

	srv := server.New(server.Config{
		StaticDir: cfg.WebDir,
		Suite:     a,
		Host:      a.Host(),
		Store:     a.Store(),
		Logger:    log,
		SavePluginDir: func(dir string) error {
			return savePluginDir(flags.configPath, dir)
		},
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.ListenAddr)
		cancel()
	}()

	if withTray {
		runTray(ctx, cancel, a, cfg, log)
	}
	<-ctx.Done()

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", "error", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// runTray blocks in the tray loop until the user quits or ctx is cancelled.
func runTray(ctx context.Context, cancel context.CancelFunc, a *app.App, cfg *config.Config, log hclog.Logger) {
	t := tray.New()
	a.BindMenu(t)

	t.OnOpen(func() {
		url := "http://" + cfg.ListenAddr
		if err := openBrowser(url); err != nil {
			log.Warn("cannot open window", "url", url, "error", err)
		}
	})
	t.OnQuit(cancel)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	return nil
}
