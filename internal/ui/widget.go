// Package ui provides the headless widget tree that plugins build their interfaces on.
//
// The tree is presentation-agnostic: the web window and the tray render snapshots of it,
// and user input is fed back through Click and SetValue. Every widget owns its subtree;
// Release detaches a widget and releases every descendant.
package ui

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Kind identifies what a widget presents.
type Kind string

// Widget kinds.
const (
	KindContainer Kind = "container"
	KindLabel     Kind = "label"
	KindButton    Kind = "button"
	KindInput     Kind = "input"
	KindText      Kind = "text"
)

// Errors returned by tree mutations.
var (
	ErrReleased      = errors.New("widget has been released")
	ErrHasParent     = errors.New("widget is already attached")
	ErrNotContainer  = errors.New("widget is not a container")
	ErrSelfReference = errors.New("widget cannot contain itself")
)

// Widget is a node in the UI tree. It is safe for concurrent use.
type Widget struct {
	id   string
	kind Kind

	mu        sync.RWMutex
	name      string
	text      string
	value     string
	action    string
	parent    *Widget
	children  []*Widget
	onClick   func()
	onChange  func(value string)
	onRelease []func()
	released  bool
}

func newWidget(kind Kind) *Widget {
	return &Widget{
		id:   uuid.NewString(),
		kind: kind,
	}
}

// NewContainer creates an empty container with the given title.
func NewContainer(title string) *Widget {
	w := newWidget(KindContainer)
	w.name = title
	return w
}

// NewLabel creates a single-line label.
func NewLabel(text string) *Widget {
	w := newWidget(KindLabel)
	w.text = text
	return w
}

// NewText creates a multi-line read-only text area.
func NewText(text string) *Widget {
	w := newWidget(KindText)
	w.text = text
	return w
}

// NewButton creates a button that calls onClick when clicked. onClick may be nil.
func NewButton(text string, onClick func()) *Widget {
	w := newWidget(KindButton)
	w.text = text
	w.onClick = onClick
	return w
}

// NewInput creates a named text input with an initial value.
func NewInput(name, value string) *Widget {
	w := newWidget(KindInput)
	w.name = name
	w.value = value
	return w
}

// ID returns the widget's unique identifier.
func (w *Widget) ID() string { return w.id }

// Kind returns the widget kind.
func (w *Widget) Kind() Kind { return w.kind }

// Name returns the container title or input name.
func (w *Widget) Name() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.name
}

// SetName changes the container title or input name.
func (w *Widget) SetName(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.released {
		w.name = name
	}
}

// Text returns the displayed text.
func (w *Widget) Text() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.text
}

// SetText changes the displayed text. It is a no-op on a released widget.
func (w *Widget) SetText(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.released {
		w.text = text
	}
}

// Value returns the current input value.
func (w *Widget) Value() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.value
}

// SetValue stores a new input value and notifies the change handler.
func (w *Widget) SetValue(value string) error {
	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		return ErrReleased
	}
	w.value = value
	fn := w.onChange
	w.mu.Unlock()

	if fn != nil {
		fn(value)
	}
	return nil
}

// Action returns the action name bound to a button built from a spec.
func (w *Widget) Action() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.action
}

// OnClick replaces the click handler.
func (w *Widget) OnClick(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.released {
		w.onClick = fn
	}
}

// OnChange replaces the value change handler.
func (w *Widget) OnChange(fn func(value string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.released {
		w.onChange = fn
	}
}

// OnRelease registers a hook that runs once when the widget is released.
// Plugins use it to stop goroutines that update their widgets.
func (w *Widget) OnRelease(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.released {
		w.onRelease = append(w.onRelease, fn)
	}
}

// Click invokes the click handler. The handler runs without any tree lock held.
func (w *Widget) Click() error {
	w.mu.RLock()
	if w.released {
		w.mu.RUnlock()
		return ErrReleased
	}
	fn := w.onClick
	w.mu.RUnlock()

	if fn != nil {
		fn()
	}
	return nil
}

// Add attaches child as the last child of w. Attaching w or one of its ancestors
// below w returns ErrSelfReference.
func (w *Widget) Add(child *Widget) error {
	if w.kind != KindContainer {
		return ErrNotContainer
	}
	for p := w; p != nil; p = p.Parent() {
		if p == child {
			return ErrSelfReference
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return ErrReleased
	}

	child.mu.Lock()
	defer child.mu.Unlock()
	if child.released {
		return ErrReleased
	}
	if child.parent != nil {
		return ErrHasParent
	}

	child.parent = w
	w.children = append(w.children, child)
	return nil
}

// Children returns a copy of the direct children.
func (w *Widget) Children() []*Widget {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Widget, len(w.children))
	copy(out, w.children)
	return out
}

// Len returns the number of direct children.
func (w *Widget) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.children)
}

// Parent returns the widget's parent, or nil when detached.
func (w *Widget) Parent() *Widget {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.parent
}

// Released reports whether the widget has been released.
func (w *Widget) Released() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.released
}

// Walk visits w and its descendants depth-first. Returning false stops the walk.
func (w *Widget) Walk(fn func(*Widget) bool) bool {
	if !fn(w) {
		return false
	}
	for _, c := range w.Children() {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Count returns the number of widgets in the subtree, w included.
func (w *Widget) Count() int {
	n := 0
	w.Walk(func(*Widget) bool {
		n++
		return true
	})
	return n
}

// Find returns the widget with the given id in w's subtree.
func (w *Widget) Find(id string) (*Widget, bool) {
	var found *Widget
	w.Walk(func(c *Widget) bool {
		if c.id == id {
			found = c
			return false
		}
		return true
	})
	return found, found != nil
}

// Values collects the values of every named input in the subtree.
func (w *Widget) Values() map[string]string {
	values := make(map[string]string)
	w.Walk(func(c *Widget) bool {
		if c.kind == KindInput {
			if name := c.Name(); name != "" {
				values[name] = c.Value()
			}
		}
		return true
	})
	return values
}

// Clear releases every child of w and leaves w itself attached and usable.
func (w *Widget) Clear() {
	for _, c := range w.Children() {
		c.Release()
	}
}

// Release detaches w from its parent and releases the whole subtree.
// Release hooks run after the children are gone. Releasing twice is a no-op.
func (w *Widget) Release() {
	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		return
	}
	w.released = true
	children := w.children
	w.children = nil
	hooks := w.onRelease
	w.onRelease = nil
	w.onClick = nil
	w.onChange = nil
	parent := w.parent
	w.parent = nil
	w.mu.Unlock()

	for _, c := range children {
		c.Release()
	}
	for _, fn := range hooks {
		fn()
	}
	if parent != nil {
		parent.remove(w)
	}
}

// Detach removes w from its parent without releasing it.
func (w *Widget) Detach() {
	w.mu.Lock()
	parent := w.parent
	w.parent = nil
	w.mu.Unlock()

	if parent != nil {
		parent.remove(w)
	}
}

func (w *Widget) remove(child *Widget) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, c := range w.children {
		if c == child {
			w.children = append(w.children[:i], w.children[i+1:]...)
			return
		}
	}
}

// MarshalJSON encodes a snapshot of the subtree.
func (w *Widget) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Snapshot())
}
