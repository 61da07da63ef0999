// Package app wires discovery, loading, the lifecycle host and persistence into the
// operations the front-ends call.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/toolsuite/internal/builtin"
	"github.com/ayusman/toolsuite/internal/config"
	"github.com/ayusman/toolsuite/internal/host"
	"github.com/ayusman/toolsuite/internal/logging"
	"github.com/ayusman/toolsuite/internal/plugin"
	"github.com/ayusman/toolsuite/internal/server/api"
	"github.com/ayusman/toolsuite/internal/store"
	"github.com/ayusman/toolsuite/internal/watcher"
)

// Config holds the dependencies of the application.
type Config struct {
	Settings *config.Config
	// Store is optional. Without it no history is kept and RestoreLast does nothing.
	Store  *store.Store
	Logger hclog.Logger
}

// Menu is a front-end that lists plugins and shows the active one. *tray.Tray
// implements it.
type Menu interface {
	SetPlugins(names []string)
	SetActive(name string)
	OnLaunch(fn func(name string))
	OnClose(fn func())
	OnRescan(fn func())
}

var (
	_ api.Suite          = (*App)(nil)
	_ api.PluginLocation = (*App)(nil)
)

// App is the running tool suite.
type App struct {
	config    Config
	log       hclog.Logger
	pluginMgr *plugin.Manager
	loader    *plugin.Loader
	host      *host.Host

	mu        sync.Mutex
	watcher   *watcher.Watcher
	listeners []func([]plugin.Descriptor)
}

// New creates the application and performs the first plugin scan.
func New(cfg Config) (*App, error) {
	if cfg.Settings == nil {
		cfg.Settings = config.Default()
	}
	log := logging.OrNull(cfg.Logger)

	registry := plugin.NewRegistry()
	if err := builtin.Register(registry); err != nil {
		return nil, err
	}

	if cfg.Settings.SeedBuiltins {
		if _, err := builtin.Seed(cfg.Settings.PluginDir, log); err != nil {
			log.Warn("seeding built-in plugins failed", "error", err)
		}
	}

	loader := plugin.NewLoader(
		plugin.WithRegistry(registry),
		plugin.WithExecutor(plugin.NewExecutor(cfg.Settings.ExecTimeout)),
		plugin.WithPreparer(plugin.RequirementsChecker{}),
		plugin.WithLogger(log),
	)

	hostOpts := []host.Option{host.WithLogger(log)}
	if cfg.Store != nil {
		hostOpts = append(hostOpts, host.WithHistory(cfg.Store.Launches()))
	}

	a := &App{
		config:    cfg,
		log:       log,
		pluginMgr: plugin.NewManager(cfg.Settings.PluginDir, log),
		loader:    loader,
		host:      host.New(loader, hostOpts...),
	}

	if _, err := a.pluginMgr.Discover(); err != nil {
		return nil, fmt.Errorf("scan plugins: %w", err)
	}
	return a, nil
}

// Plugins returns the current catalog.
func (a *App) Plugins() []plugin.Descriptor {
	return a.pluginMgr.List()
}

// Rescan rediscovers the plugin root and notifies catalog listeners.
func (a *App) Rescan() ([]plugin.Descriptor, error) {
	catalog, err := a.pluginMgr.Discover()
	if err != nil {
		a.log.Error("plugin scan failed", "error", err)
		return nil, err
	}

	a.mu.Lock()
	listeners := append([]func([]plugin.Descriptor){}, a.listeners...)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(catalog)
	}
	return catalog, nil
}

// OnCatalogChange registers fn to be called with the catalog after every rescan.
func (a *App) OnCatalogChange(fn func([]plugin.Descriptor)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Launch mounts the plugin whose name or alias is key and remembers it for the next start.
func (a *App) Launch(key string) error {
	desc, err := a.pluginMgr.Get(key)
	if err != nil {
		return fmt.Errorf("%w: %s", err, key)
	}

	if err := a.host.Launch(desc); err != nil {
		return err
	}

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(store.KeyLastPlugin, desc.Name); err != nil {
			a.log.Warn("saving last plugin", "error", err)
		}
	}
	return nil
}

// CloseActive unmounts the active plugin. The next start will not restore it.
func (a *App) CloseActive() {
	if a.host.State() != host.StateActive {
		return
	}
	a.host.CloseActive()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Delete(store.KeyLastPlugin); err != nil && !errors.Is(err, store.ErrNotFound) {
			a.log.Warn("clearing last plugin", "error", err)
		}
	}
}

// RestoreLast relaunches the plugin that was active when the suite last stopped. It
// reports whether a plugin was launched.
func (a *App) RestoreLast() (bool, error) {
	if a.config.Store == nil || !a.config.Settings.RestoreLast {
		return false, nil
	}

	name, err := a.config.Store.Settings().Get(store.KeyLastPlugin)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := a.Launch(name); err != nil {
		if errors.Is(err, plugin.ErrPluginNotFound) {
			a.log.Info("last plugin no longer installed", "plugin", name)
			a.config.Store.Settings().Delete(store.KeyLastPlugin)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// StartWatcher rescans whenever the plugin root changes. It is a no-op when watching is
// disabled in the settings.
func (a *App) StartWatcher() error {
	if !a.config.Settings.Watch {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watcher != nil {
		return nil
	}

	if err := os.MkdirAll(a.config.Settings.PluginDir, 0755); err != nil {
		return err
	}

	w, err := watcher.New(a.config.Settings.PluginDir, watcher.DefaultDebounce, func() {
		a.log.Debug("plugin directory changed")
		a.Rescan()
	}, a.log)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return err
	}

	a.watcher = w
	return nil
}

// PluginDir returns the current discovery root.
func (a *App) PluginDir() string {
	return a.pluginMgr.PluginDir()
}

// MovePlugins relocates every plugin folder from the current root into dir, switches
// discovery and watching to dir and rescans. The active plugin is closed first. Folders
// whose name already exists in dir are left in place and reported in the error.
func (a *App) MovePlugins(dir string) error {
	newRoot, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	oldRoot, err := filepath.Abs(a.pluginMgr.PluginDir())
	if err != nil {
		return err
	}
	if newRoot == oldRoot {
		_, err := a.Rescan()
		return err
	}
	if rel, err := filepath.Rel(oldRoot, newRoot); err == nil && filepath.IsLocal(rel) {
		return fmt.Errorf("plugin directory %s is inside %s", newRoot, oldRoot)
	}

	if err := os.MkdirAll(newRoot, 0755); err != nil {
		return fmt.Errorf("create plugin directory: %w", err)
	}

	a.CloseActive()

	entries, err := os.ReadDir(oldRoot)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read plugin directory: %w", err)
	}

	var errs []error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		from, to := filepath.Join(oldRoot, entry.Name()), filepath.Join(newRoot, entry.Name())
		if _, err := os.Lstat(to); err == nil {
			errs = append(errs, fmt.Errorf("%s already exists", to))
			continue
		}
		if err := os.Rename(from, to); err != nil {
			errs = append(errs, fmt.Errorf("move %s: %w", entry.Name(), err))
			continue
		}
		a.log.Info("moved plugin", "from", from, "to", to)
	}

	a.mu.Lock()
	w := a.watcher
	a.watcher = nil
	a.mu.Unlock()
	if w != nil {
		w.Stop()
	}

	a.pluginMgr.SetPluginDir(newRoot)
	a.config.Settings.PluginDir = newRoot

	if w != nil {
		if err := a.StartWatcher(); err != nil {
			errs = append(errs, fmt.Errorf("watch %s: %w", newRoot, err))
		}
	}
	if _, err := a.Rescan(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// BindMenu connects m to the suite: its entries launch and close plugins, and it is
// kept in sync with the catalog and the active plugin.
func (a *App) BindMenu(m Menu) {
	m.OnLaunch(func(name string) {
		if err := a.Launch(name); err != nil {
			a.log.Error("launch from menu failed", "plugin", name, "error", err)
		}
	})
	m.OnClose(a.CloseActive)
	m.OnRescan(func() { a.Rescan() })

	a.OnCatalogChange(func(catalog []plugin.Descriptor) {
		m.SetPlugins(names(catalog))
	})
	a.host.Subscribe(func(host.Event) {
		m.SetActive(a.host.ActiveName())
	})

	m.SetPlugins(names(a.Plugins()))
	m.SetActive(a.host.ActiveName())
}

func names(catalog []plugin.Descriptor) []string {
	out := make([]string, len(catalog))
	for i, d := range catalog {
		out[i] = d.Name
	}
	return out
}

// Stop stops watching and closes the active plugin. The last plugin setting is kept so
// the next start can restore it.
func (a *App) Stop() {
	a.mu.Lock()
	w := a.watcher
	a.watcher = nil
	a.mu.Unlock()

	if w != nil {
		w.Stop()
	}
	a.host.CloseActive()
}

// Host returns the lifecycle host.
func (a *App) Host() *host.Host {
	return a.host
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Store returns the store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}
