// Package tray provides the system tray menu for launching tool plugins.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Title is the tray title shown while no plugin is active.
const Title = "Tool Suite"

// Tray represents the system tray menu. Plugin entries are kept in a pool of submenu
// items because systray cannot remove items once added.
type Tray struct {
	onLaunch func(name string)
	onClose  func()
	onRescan func()
	onOpen   func()
	onQuit   func()
	mu       sync.RWMutex

	plugins []string
	active  string
	ready   bool

	// Menu items stored for later updates
	menuActive  *systray.MenuItem
	menuPlugins *systray.MenuItem
	menuClose   *systray.MenuItem
	slots       []*systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{}
}

// OnLaunch sets the callback called with the plugin name when a plugin entry is clicked.
func (t *Tray) OnLaunch(fn func(name string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onLaunch = fn
}

// OnClose sets the callback called when the close menu item is clicked.
func (t *Tray) OnClose(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClose = fn
}

// OnRescan sets the callback called when the rescan menu item is clicked.
func (t *Tray) OnRescan(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRescan = fn
}

// OnOpen sets the callback called when the open window menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray loop.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle(Title)
	systray.SetTooltip("Tool Suite plugin launcher")

	t.mu.Lock()
	t.menuActive = systray.AddMenuItem(activeLabel(""), "Active plugin")
	t.menuActive.Disable()
	systray.AddSeparator()

	t.menuPlugins = systray.AddMenuItem("Plugins", "Launch a plugin")
	t.menuClose = systray.AddMenuItem("Close Plugin", "Close the active plugin")
	t.menuClose.Disable()
	t.mu.Unlock()

	menuRescan := systray.AddMenuItem("Rescan Plugins", "Rescan the plugin folder")
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Window...", "Open the suite window in the browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Tool Suite")

	t.mu.Lock()
	t.ready = true
	t.applyPlugins()
	t.applyActive()
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuClose.ClickedCh:
				t.handle(func() func() { return t.onClose })
			case <-menuRescan.ClickedCh:
				t.handle(func() func() { return t.onRescan })
			case <-menuOpen.ClickedCh:
				t.handle(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ready = false
}

// SetPlugins replaces the plugin entries.
func (t *Tray) SetPlugins(names []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.plugins = append([]string(nil), names...)
	if t.ready {
		t.applyPlugins()
	}
}

// SetActive shows name as the active plugin. An empty name means idle.
func (t *Tray) SetActive(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active = name
	if t.ready {
		t.applyActive()
	}
}

// Active returns the plugin name shown as active.
func (t *Tray) Active() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// applyPlugins syncs the submenu pool with t.plugins. Caller holds t.mu.
func (t *Tray) applyPlugins() {
	for len(t.slots) < len(t.plugins) {
		i := len(t.slots)
		item := t.menuPlugins.AddSubMenuItem("", "Launch plugin")
		t.slots = append(t.slots, item)

		go func() {
			for range item.ClickedCh {
				t.handleLaunch(i)
			}
		}()
	}

	for i, item := range t.slots {
		if i < len(t.plugins) {
			item.SetTitle(t.plugins[i])
			item.Show()
		} else {
			item.Hide()
		}
	}

	if len(t.plugins) == 0 {
		t.menuPlugins.SetTitle("Plugins (none found)")
	} else {
		t.menuPlugins.SetTitle("Plugins")
	}
}

// applyActive syncs the title and close item with t.active. Caller holds t.mu.
func (t *Tray) applyActive() {
	t.menuActive.SetTitle(activeLabel(t.active))
	if t.active == "" {
		systray.SetTitle(Title)
		t.menuClose.Disable()
	} else {
		systray.SetTitle(Title + ": " + t.active)
		t.menuClose.Enable()
	}
}

func activeLabel(name string) string {
	if name == "" {
		return "Active: none"
	}
	return "Active: " + name
}

// handleLaunch calls the launch callback for the plugin in slot i.
func (t *Tray) handleLaunch(i int) {
	t.mu.RLock()
	if i < 0 || i >= len(t.plugins) {
		t.mu.RUnlock()
		return
	}
	name := t.plugins[i]
	callback := t.onLaunch
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(name)
	}
}

// handle calls the callback returned by get outside the lock.
func (t *Tray) handle(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.handle(func() func() { return t.onQuit })
	systray.Quit()
}
