// Package renamer is the built-in illegal character replacement tool. It scans a folder
// for file names containing characters that other file systems reject and renames them
// one at a time, each behind a two-click confirmation.
package renamer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/toolsuite/internal/ui"
)

// Name is the builtin registry key.
const Name = "renamer"

// Title is shown as the tool's heading.
const Title = "Illegal Character Replacement"

// Default settings.
const (
	DefaultIllegal     = `<>:"/\|?*`
	DefaultReplacement = "-"
)

// Button captions of the confirmation sequence.
const (
	captionReplace = "Replace"
	captionConfirm = "Sure?"
	captionDone    = "Done"
)

// Input names.
const (
	InputDirectory   = "directory"
	InputIllegal     = "illegal"
	InputReplacement = "replacement"
)

// Module is one instance of the tool. Its handlers are invoked one at a time by the host.
type Module struct {
	log hclog.Logger

	directory   *ui.Widget
	illegal     *ui.Widget
	replacement *ui.Widget
	trailingBtn *ui.Widget
	status      *ui.Widget
	results     *ui.Widget

	trailing bool
	issues   []Issue
	armed    []*ui.Widget
}

// New creates a tool instance.
func New() *Module {
	return &Module{log: hclog.NewNullLogger()}
}

// Main builds the tool's interface.
func (m *Module) Main(_ *ui.Widget, log hclog.Logger) (*ui.Widget, error) {
	if log != nil {
		m.log = log
	}

	root := ui.NewContainer(Title)
	m.directory = ui.NewInput(InputDirectory, "")
	m.illegal = ui.NewInput(InputIllegal, DefaultIllegal)
	m.replacement = ui.NewInput(InputReplacement, DefaultReplacement)
	m.trailingBtn = ui.NewButton(m.trailingCaption(), m.toggleTrailing)
	m.status = ui.NewLabel("")
	m.results = ui.NewContainer("Results")

	for _, in := range []*ui.Widget{m.directory, m.illegal, m.replacement} {
		in.OnChange(func(string) { m.disarm() })
	}

	for _, w := range []*ui.Widget{
		ui.NewLabel("Directory"), m.directory,
		ui.NewLabel("Illegal characters"), m.illegal,
		ui.NewLabel("Replacement character"), m.replacement,
		m.trailingBtn,
		ui.NewButton("Analyze", m.analyze),
		m.status,
		m.results,
	} {
		if err := root.Add(w); err != nil {
			return nil, err
		}
	}

	return root, nil
}

// Close does nothing; the tool holds no resources outside its widgets.
func (m *Module) Close() error { return nil }

// Issues returns the results of the last analysis.
func (m *Module) Issues() []Issue {
	return append([]Issue(nil), m.issues...)
}

func (m *Module) trailingCaption() string {
	if m.trailing {
		return "Trailing periods: on"
	}
	return "Trailing periods: off"
}

func (m *Module) toggleTrailing() {
	m.trailing = !m.trailing
	m.trailingBtn.SetText(m.trailingCaption())
	m.disarm()
}

// disarm returns every pending confirmation to its initial caption.
func (m *Module) disarm() {
	for _, b := range m.armed {
		if !b.Released() && b.Text() == captionConfirm {
			b.SetText(captionReplace)
		}
	}
	m.armed = nil
}

func (m *Module) analyze() {
	m.disarm()
	m.results.Clear()
	m.issues = nil

	dir := strings.TrimSpace(m.directory.Value())
	illegal := strings.TrimSpace(m.illegal.Value())
	if dir == "" {
		m.status.SetText("Please select a directory.")
		return
	}
	if illegal == "" {
		m.status.SetText("Please specify illegal characters.")
		return
	}

	issues, err := Scan(dir, illegal, m.trailing)
	if err != nil {
		m.log.Warn("analyze failed", "dir", dir, "error", err)
		m.status.SetText(fmt.Sprintf("Cannot analyze %s: %v", dir, err))
		return
	}

	m.issues = issues
	m.status.SetText(fmt.Sprintf("%d item(s) found", len(issues)))
	for _, issue := range issues {
		if err := m.results.Add(m.row(issue)); err != nil {
			m.log.Error("adding result row", "error", err)
			return
		}
	}
}

func (m *Module) row(issue Issue) *ui.Widget {
	row := ui.NewContainer(issue.Path())
	override := ui.NewInput("override", "")
	override.OnChange(func(string) { m.disarm() })

	var replace *ui.Widget
	replace = ui.NewButton(captionReplace, func() { m.confirm(issue, replace, override) })

	_ = row.Add(ui.NewLabel(issue.Name))
	_ = row.Add(ui.NewLabel(issue.Target))
	_ = row.Add(override)
	_ = row.Add(replace)
	return row
}

func (m *Module) confirm(issue Issue, button, override *ui.Widget) {
	switch button.Text() {
	case captionReplace:
		m.disarm()
		button.SetText(captionConfirm)
		m.armed = append(m.armed, button)

	case captionConfirm:
		newName, err := NewName(
			issue.Name,
			strings.TrimSpace(m.illegal.Value()),
			strings.TrimSpace(m.replacement.Value()),
			strings.TrimSpace(override.Value()),
			m.trailing,
		)
		if err == nil {
			_, err = Apply(issue, newName)
		}
		if err != nil {
			m.log.Warn("rename failed", "path", issue.Path(), "error", err)
			m.status.SetText(fmt.Sprintf("Failed to rename %s: %v", issue.Path(), err))
			button.SetText(captionReplace)
			m.armed = nil
			return
		}

		m.log.Info("renamed", "from", issue.Path(), "to", filepath.Join(issue.Dir, newName))
		button.SetText(captionDone)
		m.armed = nil
		m.analyze()
		m.status.SetText(fmt.Sprintf("Renamed %s to %s. %s", issue.Name, newName, m.status.Text()))
	}
}
