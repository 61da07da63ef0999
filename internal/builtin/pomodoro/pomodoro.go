// Package pomodoro is the built-in work/break countdown timer.
package pomodoro

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/toolsuite/internal/ui"
)

// Name is the builtin registry key.
const Name = "pomodoro"

// Period selects which length the countdown is reset to.
type Period int

// Periods.
const (
	PeriodPomodoro Period = iota
	PeriodShortBreak
	PeriodLongBreak
)

// Module is one timer instance. The countdown runs on its own goroutine, which stops
// when the interface is released or the module is closed.
type Module struct {
	dir  string
	tick time.Duration
	log  hclog.Logger

	mu        sync.Mutex
	settings  Settings
	remaining int
	running   bool

	display  *ui.Widget
	status   *ui.Widget
	startBtn *ui.Widget
	notes    *ui.Widget
	minutes  [3]*ui.Widget

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Option configures a Module.
type Option func(*Module)

// WithTick sets how often one second of countdown elapses.
func WithTick(d time.Duration) Option {
	return func(m *Module) {
		m.tick = d
	}
}

// New creates a timer that keeps its settings in dir. An empty dir keeps them in memory.
func New(dir string, opts ...Option) *Module {
	m := &Module{
		dir:  dir,
		tick: time.Second,
		log:  hclog.NewNullLogger(),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Main builds the timer interface and starts the countdown goroutine.
func (m *Module) Main(_ *ui.Widget, log hclog.Logger) (*ui.Widget, error) {
	if log != nil {
		m.log = log
	}

	m.settings = DefaultSettings()
	if m.dir != "" {
		s, err := LoadSettings(m.dir)
		if err != nil {
			m.log.Warn("using default settings", "error", err)
		}
		m.settings = s
	}
	m.remaining = m.settings.Pomodoro

	root := ui.NewContainer("Pomodoro")
	m.display = ui.NewLabel(formatClock(m.remaining))
	m.status = ui.NewLabel("")
	m.startBtn = ui.NewButton("Start", m.toggle)
	m.notes = ui.NewInput("notes", m.settings.Notes)
	m.minutes = [3]*ui.Widget{
		ui.NewInput("pomodoro_minutes", strconv.Itoa(m.settings.Pomodoro/60)),
		ui.NewInput("short_break_minutes", strconv.Itoa(m.settings.ShortBreak/60)),
		ui.NewInput("long_break_minutes", strconv.Itoa(m.settings.LongBreak/60)),
	}

	for _, w := range []*ui.Widget{
		m.display,
		ui.NewButton("Pomodoro", func() { m.Reset(PeriodPomodoro) }),
		ui.NewButton("Short Break", func() { m.Reset(PeriodShortBreak) }),
		ui.NewButton("Long Break", func() { m.Reset(PeriodLongBreak) }),
		m.startBtn,
		m.status,
		ui.NewLabel("Tasks/Notes"),
		m.notes,
		ui.NewLabel("Pomodoro / short break / long break (minutes)"),
		m.minutes[0], m.minutes[1], m.minutes[2],
		ui.NewButton("Load Default", m.loadDefaults),
		ui.NewButton("Save", m.saveMinutes),
	} {
		if err := root.Add(w); err != nil {
			return nil, err
		}
	}

	root.OnRelease(m.halt)
	go m.run()

	return root, nil
}

// Close stops the countdown goroutine.
func (m *Module) Close() error {
	m.halt()
	return nil
}

func (m *Module) halt() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Module) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.step()
		}
	}
}

func (m *Module) step() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.remaining > 0 {
		m.remaining--
		m.display.SetText(formatClock(m.remaining))
	}
	if m.remaining == 0 {
		m.running = false
		m.startBtn.SetText("Start")
		m.status.SetText("Time is up")
		m.log.Info("period finished")
	}
}

// Remaining returns the seconds left in the current period.
func (m *Module) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

// Running reports whether the countdown is running.
func (m *Module) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Module) toggle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		m.running = false
		m.startBtn.SetText("Start")
		return
	}
	if m.remaining == 0 {
		return
	}
	m.running = true
	m.startBtn.SetText("Pause")
	m.status.SetText("")
}

// Reset stops the countdown at the full length of p and saves the notes.
func (m *Module) Reset(p Period) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings.Notes = m.notes.Value()
	m.save()

	switch p {
	case PeriodShortBreak:
		m.remaining = m.settings.ShortBreak
	case PeriodLongBreak:
		m.remaining = m.settings.LongBreak
	default:
		m.remaining = m.settings.Pomodoro
	}
	m.running = false
	m.startBtn.SetText("Start")
	m.status.SetText("")
	m.display.SetText(formatClock(m.remaining))
}

func (m *Module) loadDefaults() {
	d := DefaultSettings()
	for i, secs := range []int{d.Pomodoro, d.ShortBreak, d.LongBreak} {
		_ = m.minutes[i].SetValue(strconv.Itoa(secs / 60))
	}
}

func (m *Module) saveMinutes() {
	var secs [3]int
	for i, in := range m.minutes {
		n, err := strconv.Atoi(strings.TrimSpace(in.Value()))
		if err != nil || n <= 0 {
			m.status.SetText(fmt.Sprintf("Invalid minutes for %s", in.Name()))
			return
		}
		secs[i] = n * 60
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings.Pomodoro, m.settings.ShortBreak, m.settings.LongBreak = secs[0], secs[1], secs[2]
	m.settings.Notes = m.notes.Value()
	m.save()
	m.status.SetText("Settings saved")
}

// save persists the settings. Caller holds m.mu.
func (m *Module) save() {
	if m.dir == "" {
		return
	}
	if err := SaveSettings(m.dir, m.settings); err != nil {
		m.log.Warn("saving settings", "error", err)
	}
}

func formatClock(secs int) string {
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
