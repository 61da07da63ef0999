// Package host owns the single mount point that shows the active plugin.
package host

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/toolsuite/internal/logging"
	"github.com/ayusman/toolsuite/internal/plugin"
	"github.com/ayusman/toolsuite/internal/ui"
)

// ErrWidgetNotFound is returned when an input targets a widget that is not mounted.
var ErrWidgetNotFound = errors.New("widget not found in active plugin")

// Loader loads plugin modules. *plugin.Loader implements it.
type Loader interface {
	Load(desc plugin.Descriptor) (plugin.Loaded, error)
}

// History records launch attempts. *store.LaunchRepository implements it.
type History interface {
	// RecordLaunch stores a launch attempt and returns its id. launchErr is nil on success.
	RecordLaunch(desc plugin.Descriptor, launchErr error) (string, error)
	// RecordClose marks a successful launch as closed.
	RecordClose(id string) error
}

// Event is published after every state change or user input.
type Event struct {
	Type   EventType `json:"type"`
	Plugin string    `json:"plugin,omitempty"`
	Error  string    `json:"error,omitempty"`
	Time   time.Time `json:"time"`
}

// Host mounts at most one plugin UI at a time. All operations are serialized, so a
// launch never runs concurrently with another launch, close or input.
type Host struct {
	mu      sync.Mutex
	loader  Loader
	log     hclog.Logger
	history History

	slot     *ui.Widget
	state    State
	active   plugin.Descriptor
	module   plugin.Loaded
	mount    *ui.Widget
	launchID string

	subsMu  sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the suite logger. Plugins get a child channel of it.
func WithLogger(log hclog.Logger) Option {
	return func(h *Host) {
		h.log = log
	}
}

// WithHistory sets the launch history recorder.
func WithHistory(history History) Option {
	return func(h *Host) {
		h.history = history
	}
}

// New creates an idle Host that loads plugins with loader.
func New(loader Loader, opts ...Option) *Host {
	h := &Host{
		loader: loader,
		slot:   ui.NewContainer(""),
		state:  StateIdle,
		subs:   make(map[int]func(Event)),
	}

	for _, opt := range opts {
		opt(h)
	}
	h.log = logging.OrNull(h.log)

	return h
}

// Launch loads desc, builds its UI in a fresh mount container and swaps it into the
// slot. The previous plugin is released only once the new one is fully built; on any
// failure the slot keeps its prior state and the error is returned.
func (h *Host) Launch(desc plugin.Descriptor) error {
	h.mu.Lock()
	closedPrev, err := h.launch(desc)
	h.mu.Unlock()

	if err != nil {
		h.log.Error("plugin launch failed", "plugin", desc.Name, "error", err)
		h.publish(Event{Type: EventFailed, Plugin: desc.Name, Error: err.Error()})
		return err
	}

	if closedPrev != "" {
		h.publish(Event{Type: EventClosed, Plugin: closedPrev})
	}
	h.log.Info("plugin launched", "plugin", desc.Name)
	h.publish(Event{Type: EventLaunched, Plugin: desc.Name})
	return nil
}

func (h *Host) launch(desc plugin.Descriptor) (string, error) {
	module, err := h.loader.Load(desc)
	if err != nil {
		h.recordFailure(desc, err)
		return "", err
	}

	mount := ui.NewContainer(desc.Name)
	if err := h.build(module, mount, desc); err != nil {
		mount.Release()
		if cerr := module.Close(); cerr != nil {
			h.log.Warn("closing failed plugin", "plugin", desc.Name, "error", cerr)
		}
		h.recordFailure(desc, err)
		return "", err
	}

	// The new mount joins the slot before the old one leaves, so a failure here keeps
	// the prior plugin mounted.
	if err := h.slot.Add(mount); err != nil {
		mount.Release()
		if cerr := module.Close(); cerr != nil {
			h.log.Warn("closing failed plugin", "plugin", desc.Name, "error", cerr)
		}
		err = fmt.Errorf("mount plugin: %w", err)
		h.recordFailure(desc, err)
		return "", err
	}

	closedPrev := h.teardown()
	h.slot.SetName(desc.Name)

	h.state = StateActive
	h.active = desc
	h.module = module
	h.mount = mount
	h.launchID = ""

	if h.history != nil {
		id, err := h.history.RecordLaunch(desc, nil)
		if err != nil {
			h.log.Warn("recording launch", "plugin", desc.Name, "error", err)
		}
		h.launchID = id
	}

	return closedPrev, nil
}

// build calls the module's entry point and attaches whatever it returned. Errors and
// panics from plugin code are reported as import failures.
func (h *Host) build(module plugin.Loaded, mount *ui.Widget, desc plugin.Descriptor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &plugin.LoadError{Kind: plugin.KindImportFailure, Plugin: desc.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	handle, err := module.Main(mount, logging.ForPlugin(h.log, desc.Name))
	if err != nil {
		if _, ok := plugin.KindOf(err); ok {
			return err
		}
		return &plugin.LoadError{Kind: plugin.KindImportFailure, Plugin: desc.Name, Err: err}
	}

	// A nil handle, the mount itself, or a widget main already placed inside the
	// mount means main attached its widgets directly.
	if handle == nil || within(handle, mount) {
		return nil
	}
	if err := mount.Add(handle); err != nil {
		if handle.Parent() == nil {
			handle.Release()
		}
		return &plugin.LoadError{Kind: plugin.KindImportFailure, Plugin: desc.Name, Err: fmt.Errorf("attach ui: %w", err)}
	}
	return nil
}

// within reports whether w is root or one of its descendants.
func within(w, root *ui.Widget) bool {
	for p := w; p != nil; p = p.Parent() {
		if p == root {
			return true
		}
	}
	return false
}

// CloseActive releases the mounted plugin and returns to idle. It is a no-op when idle.
func (h *Host) CloseActive() {
	h.mu.Lock()
	closed := h.teardown()
	h.mu.Unlock()

	if closed != "" {
		h.log.Info("plugin closed", "plugin", closed)
		h.publish(Event{Type: EventClosed, Plugin: closed})
	}
}

// teardown releases the active plugin, if any, and returns its name.
func (h *Host) teardown() string {
	if h.state != StateActive {
		return ""
	}
	name := h.active.Name

	h.mount.Release()
	if err := h.module.Close(); err != nil {
		h.log.Warn("closing plugin", "plugin", name, "error", err)
	}
	if h.history != nil && h.launchID != "" {
		if err := h.history.RecordClose(h.launchID); err != nil {
			h.log.Warn("recording close", "plugin", name, "error", err)
		}
	}

	h.slot.SetName("")
	h.state = StateIdle
	h.active = plugin.Descriptor{}
	h.module = nil
	h.mount = nil
	h.launchID = ""

	return name
}

func (h *Host) recordFailure(desc plugin.Descriptor, launchErr error) {
	if h.history == nil {
		return
	}
	if _, err := h.history.RecordLaunch(desc, launchErr); err != nil {
		h.log.Warn("recording failed launch", "plugin", desc.Name, "error", err)
	}
}

// State returns the current state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Active returns the descriptor of the mounted plugin.
func (h *Host) Active() (plugin.Descriptor, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active, h.state == StateActive
}

// ActiveName returns the display name bound to the slot, or "" when idle.
func (h *Host) ActiveName() string {
	return h.slot.Name()
}

// Slot returns the mount point. Callers must treat it as read-only.
func (h *Host) Slot() *ui.Widget {
	return h.slot
}

// Snapshot captures the slot's widget tree.
func (h *Host) Snapshot() ui.Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.slot.Snapshot()
}

// Click delivers a click to a mounted widget.
func (h *Host) Click(id string) error {
	return h.input(id, func(w *ui.Widget) error { return w.Click() })
}

// SetValue delivers an input edit to a mounted widget.
func (h *Host) SetValue(id, value string) error {
	return h.input(id, func(w *ui.Widget) error { return w.SetValue(value) })
}

func (h *Host) input(id string, apply func(*ui.Widget) error) error {
	h.mu.Lock()
	w, ok := h.slot.Find(id)
	if !ok || w == h.slot {
		h.mu.Unlock()
		return ErrWidgetNotFound
	}
	name := h.active.Name
	err := apply(w)
	h.mu.Unlock()

	if err != nil {
		return err
	}
	h.publish(Event{Type: EventUpdated, Plugin: name})
	return nil
}

// Subscribe registers fn for host events and returns a function that removes it.
// fn is called synchronously outside the host lock.
func (h *Host) Subscribe(fn func(Event)) func() {
	h.subsMu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	h.subsMu.Unlock()

	return func() {
		h.subsMu.Lock()
		delete(h.subs, id)
		h.subsMu.Unlock()
	}
}

func (h *Host) publish(e Event) {
	e.Time = time.Now()

	h.subsMu.RLock()
	fns := make([]func(Event), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.subsMu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}
