// Package watcher triggers a plugin rescan when the plugin root changes on disk.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/toolsuite/internal/logging"
)

// DefaultDebounce is how long the watcher waits after the last event before rescanning.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches the plugin root and its immediate subdirectories. Bursts of events
// collapse into a single onChange call.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func()
	log      hclog.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timer   *time.Timer
	running bool
	done    chan struct{}
}

// New creates a watcher for root. A non-positive debounce uses DefaultDebounce.
func New(root string, debounce time.Duration, onChange func(), log hclog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		root:     root,
		debounce: debounce,
		onChange: onChange,
		log:      logging.OrNull(log),
		watcher:  fw,
		done:     make(chan struct{}),
	}, nil
}

// Start adds the watches and begins handling events.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.watcher.Add(w.root); err != nil {
		return err
	}

	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			w.watchDir(filepath.Join(w.root, e.Name()))
		}
	}

	w.running = true
	go w.handleEvents()
	w.log.Debug("watching plugin directory", "dir", w.root)
	return nil
}

// Stop cancels a pending rescan and closes the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	w.watcher.Close()
	if wasRunning {
		<-w.done
	}
}

func (w *Watcher) watchDir(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.log.Warn("failed to watch plugin folder", "dir", dir, "error", err)
	}
}

func (w *Watcher) handleEvents() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			if event.Op == fsnotify.Chmod {
				continue
			}

			// New plugin folders need their own watch to see metadata edits.
			if event.Op&fsnotify.Create != 0 && filepath.Dir(event.Name) == filepath.Clean(w.root) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.watchDir(event.Name)
				}
			}

			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		running := w.running
		w.mu.Unlock()

		if running {
			w.onChange()
		}
	})
}
