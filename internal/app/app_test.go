package app

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/toolsuite/internal/config"
	"github.com/ayusman/toolsuite/internal/host"
	"github.com/ayusman/toolsuite/internal/plugin"
	"github.com/ayusman/toolsuite/internal/store"
	"github.com/ayusman/toolsuite/testdata"
)

func testSettings(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.PluginDir = testdata.CopyPlugins(t)
	cfg.DataDir = t.TempDir()
	cfg.Watch = false
	cfg.SeedBuiltins = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, *store.Store) {
	t.Helper()
	db, err := store.New(cfg.DBPath())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a, err := New(Config{Settings: cfg, Store: db})
	require.NoError(t, err)
	t.Cleanup(a.Stop)
	return a, db
}

func TestNew_ScansPluginRoot(t *testing.T) {
	a, _ := newTestApp(t, testSettings(t))

	assert.Equal(t, []string{testdata.Counter, testdata.Greeter, testdata.NoMain}, names(a.Plugins()))
	assert.Equal(t, host.StateIdle, a.Host().State())
}

func TestNew_MissingRootIsEmpty(t *testing.T) {
	cfg := testSettings(t)
	cfg.PluginDir = filepath.Join(t.TempDir(), "absent")

	a, _ := newTestApp(t, cfg)
	assert.Empty(t, a.Plugins())
}

func TestNew_SeedsBuiltins(t *testing.T) {
	cfg := testSettings(t)
	cfg.SeedBuiltins = true

	a, _ := newTestApp(t, cfg)

	_, err := a.PluginManager().Get("ICRT")
	require.NoError(t, err)
	_, err = a.PluginManager().Get("POMO")
	require.NoError(t, err)
	_, err = a.PluginManager().Get("QRCG")
	require.NoError(t, err)

	require.NoError(t, a.Launch("Pomodoro"))
	assert.Equal(t, "Pomodoro", a.Host().ActiveName())
}

func TestLaunch_RemembersLastPlugin(t *testing.T) {
	a, db := newTestApp(t, testSettings(t))

	require.NoError(t, a.Launch("CNT"))
	assert.Equal(t, testdata.Counter, a.Host().ActiveName())

	last, err := db.Settings().Get(store.KeyLastPlugin)
	require.NoError(t, err)
	assert.Equal(t, testdata.Counter, last)

	launches, err := db.Launches().List(0)
	require.NoError(t, err)
	require.Len(t, launches, 1)
	assert.True(t, launches[0].Success)
}

func TestLaunch_UnknownPlugin(t *testing.T) {
	a, _ := newTestApp(t, testSettings(t))

	err := a.Launch("Nope")
	assert.ErrorIs(t, err, plugin.ErrPluginNotFound)
	assert.Equal(t, host.StateIdle, a.Host().State())
}

func TestLaunch_FailureKeepsLastPlugin(t *testing.T) {
	a, db := newTestApp(t, testSettings(t))

	require.NoError(t, a.Launch(testdata.Greeter))
	err := a.Launch(testdata.NoMain)
	assert.ErrorIs(t, err, plugin.ErrNoEntryPoint)

	assert.Equal(t, testdata.Greeter, a.Host().ActiveName())
	last, err := db.Settings().Get(store.KeyLastPlugin)
	require.NoError(t, err)
	assert.Equal(t, testdata.Greeter, last)
}

func TestCloseActive_ForgetsLastPlugin(t *testing.T) {
	a, db := newTestApp(t, testSettings(t))

	require.NoError(t, a.Launch(testdata.Greeter))
	a.CloseActive()

	assert.Equal(t, host.StateIdle, a.Host().State())
	_, err := db.Settings().Get(store.KeyLastPlugin)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// idle close is a no-op
	a.CloseActive()
}

func TestRestoreLast(t *testing.T) {
	cfg := testSettings(t)
	a, db := newTestApp(t, cfg)
	require.NoError(t, a.Launch(testdata.Counter))
	a.Stop()

	restarted, err := New(Config{Settings: cfg, Store: db})
	require.NoError(t, err)
	t.Cleanup(restarted.Stop)

	ok, err := restarted.RestoreLast()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testdata.Counter, restarted.Host().ActiveName())
}

func TestRestoreLast_Disabled(t *testing.T) {
	cfg := testSettings(t)
	cfg.RestoreLast = false
	a, db := newTestApp(t, cfg)
	require.NoError(t, db.Settings().Set(store.KeyLastPlugin, testdata.Counter))

	ok, err := a.RestoreLast()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, host.StateIdle, a.Host().State())
}

func TestRestoreLast_NothingStored(t *testing.T) {
	a, _ := newTestApp(t, testSettings(t))

	ok, err := a.RestoreLast()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestoreLast_PluginRemoved(t *testing.T) {
	a, db := newTestApp(t, testSettings(t))
	require.NoError(t, db.Settings().Set(store.KeyLastPlugin, "Uninstalled"))

	ok, err := a.RestoreLast()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = db.Settings().Get(store.KeyLastPlugin)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRescan_NotifiesListeners(t *testing.T) {
	cfg := testSettings(t)
	a, _ := newTestApp(t, cfg)

	var got []string
	a.OnCatalogChange(func(catalog []plugin.Descriptor) {
		got = names(catalog)
	})

	testdata.WritePlugin(t, cfg.PluginDir, "Added", `{"name":"Added","main":"main.lua"}`,
		map[string]string{"main.lua": "function main(host) end"})

	catalog, err := a.Rescan()
	require.NoError(t, err)
	assert.Len(t, catalog, 4)
	assert.Contains(t, got, "Added")
}

func TestWithoutStore(t *testing.T) {
	a, err := New(Config{Settings: testSettings(t)})
	require.NoError(t, err)
	defer a.Stop()

	require.NoError(t, a.Launch(testdata.Greeter))
	a.CloseActive()

	ok, err := a.RestoreLast()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, a.Store())
}

func TestStartWatcher_RescansOnChange(t *testing.T) {
	cfg := testSettings(t)
	cfg.Watch = true
	a, _ := newTestApp(t, cfg)

	require.NoError(t, a.StartWatcher())
	require.NoError(t, a.StartWatcher())

	testdata.WritePlugin(t, cfg.PluginDir, "Watched", `{"name":"Watched","main":"main.lua"}`,
		map[string]string{"main.lua": "function main(host) end"})

	assert.Eventually(t, func() bool {
		_, err := a.PluginManager().Get("Watched")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestStartWatcher_Disabled(t *testing.T) {
	a, _ := newTestApp(t, testSettings(t))

	require.NoError(t, a.StartWatcher())
	assert.Nil(t, a.watcher)
}

func TestMovePlugins(t *testing.T) {
	cfg := testSettings(t)
	oldRoot := cfg.PluginDir
	a, _ := newTestApp(t, cfg)
	require.NoError(t, a.Launch("CNT"))

	var notified []string
	a.OnCatalogChange(func(catalog []plugin.Descriptor) { notified = names(catalog) })

	newRoot := filepath.Join(t.TempDir(), "moved")
	require.NoError(t, a.MovePlugins(newRoot))

	assert.Equal(t, host.StateIdle, a.Host().State(), "the active plugin is closed before moving")
	assert.Equal(t, newRoot, cfg.PluginDir)
	assert.Equal(t, newRoot, a.PluginManager().PluginDir())
	assert.DirExists(t, filepath.Join(newRoot, "Counter"))
	assert.DirExists(t, filepath.Join(newRoot, "BadMetadata"))
	assert.NoDirExists(t, filepath.Join(oldRoot, "Counter"))

	assert.Equal(t, []string{testdata.Counter, testdata.Greeter, testdata.NoMain}, notified)
	desc, err := a.PluginManager().Get("CNT")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(newRoot, "Counter"), desc.Dir)

	require.NoError(t, a.Launch("CNT"))
}

func TestMovePlugins_ExistingFolderIsKept(t *testing.T) {
	cfg := testSettings(t)
	oldRoot := cfg.PluginDir
	a, _ := newTestApp(t, cfg)

	newRoot := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(newRoot, "Greeter"), 0755))

	err := a.MovePlugins(newRoot)
	assert.ErrorContains(t, err, "already exists")

	assert.DirExists(t, filepath.Join(oldRoot, "Greeter"))
	assert.DirExists(t, filepath.Join(newRoot, "Counter"))
	assert.Equal(t, newRoot, cfg.PluginDir)

	_, err = a.PluginManager().Get("CNT")
	assert.NoError(t, err)
}

func TestMovePlugins_SameRootRescans(t *testing.T) {
	cfg := testSettings(t)
	a, _ := newTestApp(t, cfg)

	testdata.WritePlugin(t, cfg.PluginDir, "Late", `{"name":"Late"}`, nil)
	require.NoError(t, a.MovePlugins(cfg.PluginDir))

	_, err := a.PluginManager().Get("Late")
	assert.NoError(t, err)
}

func TestMovePlugins_IntoOwnRootIsRejected(t *testing.T) {
	cfg := testSettings(t)
	a, _ := newTestApp(t, cfg)

	err := a.MovePlugins(filepath.Join(cfg.PluginDir, "nested"))
	assert.ErrorContains(t, err, "inside")
	assert.DirExists(t, filepath.Join(cfg.PluginDir, "Counter"))
}

func TestMovePlugins_RestartsWatcher(t *testing.T) {
	cfg := testSettings(t)
	cfg.Watch = true
	a, _ := newTestApp(t, cfg)
	require.NoError(t, a.StartWatcher())

	newRoot := filepath.Join(t.TempDir(), "watched")
	require.NoError(t, a.MovePlugins(newRoot))
	require.NotNil(t, a.watcher)

	testdata.WritePlugin(t, newRoot, "Fresh", `{"name":"Fresh","main":"main.lua"}`,
		map[string]string{"main.lua": "function main(host) end"})

	assert.Eventually(t, func() bool {
		_, err := a.PluginManager().Get("Fresh")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}

type fakeMenu struct {
	mu       sync.Mutex
	plugins  []string
	active   string
	onLaunch func(string)
	onClose  func()
	onRescan func()
}

func (m *fakeMenu) SetPlugins(names []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plugins = names
}

func (m *fakeMenu) SetActive(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = name
}

func (m *fakeMenu) OnLaunch(fn func(string)) { m.onLaunch = fn }
func (m *fakeMenu) OnClose(fn func())        { m.onClose = fn }
func (m *fakeMenu) OnRescan(fn func())       { m.onRescan = fn }

func (m *fakeMenu) state() ([]string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plugins, m.active
}

func TestBindMenu(t *testing.T) {
	cfg := testSettings(t)
	a, _ := newTestApp(t, cfg)
	menu := &fakeMenu{}

	a.BindMenu(menu)
	plugins, active := menu.state()
	assert.Equal(t, []string{testdata.Counter, testdata.Greeter, testdata.NoMain}, plugins)
	assert.Empty(t, active)

	menu.onLaunch(testdata.Greeter)
	_, active = menu.state()
	assert.Equal(t, testdata.Greeter, active)

	// a failed launch leaves the menu on the prior plugin
	menu.onLaunch(testdata.NoMain)
	_, active = menu.state()
	assert.Equal(t, testdata.Greeter, active)

	menu.onClose()
	_, active = menu.state()
	assert.Empty(t, active)

	require.NoError(t, os.RemoveAll(filepath.Join(cfg.PluginDir, testdata.NoMain)))
	menu.onRescan()
	plugins, _ = menu.state()
	assert.Equal(t, []string{testdata.Counter, testdata.Greeter}, plugins)
}
