package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/toolsuite/internal/logging"
	"github.com/ayusman/toolsuite/internal/ui"
)

// Actions understood by every executable plugin.
const (
	ActionDescribe = "describe"
	ActionMain     = "main"
)

// describeResult is the data an executable plugin returns for ActionDescribe.
type describeResult struct {
	Actions []string `json:"actions"`
}

// processModule drives an executable plugin: every action is one process run.
type processModule struct {
	desc Descriptor
	exec *Executor
}

// loadProcess performs the describe handshake, the import step of executable plugins.
func loadProcess(desc Descriptor, exec *Executor) (Loaded, error) {
	resp, err := exec.Execute(desc, &Request{Action: ActionDescribe, Plugin: desc.Name})
	if err != nil {
		return nil, newLoadError(KindImportFailure, desc.Name, err)
	}
	if !resp.Success {
		return nil, newLoadError(KindImportFailure, desc.Name, errors.New(resp.Error))
	}

	var d describeResult
	if err := json.Unmarshal(resp.Data, &d); err != nil {
		return nil, newLoadError(KindImportFailure, desc.Name, fmt.Errorf("parse describe: %w", err))
	}
	if !slices.Contains(d.Actions, ActionMain) {
		return nil, newLoadError(KindNoEntryPoint, desc.Name, nil)
	}

	return &processModule{desc: desc, exec: exec}, nil
}

// Main asks the plugin for its initial widget spec and renders it.
func (m *processModule) Main(host *ui.Widget, log hclog.Logger) (*ui.Widget, error) {
	log = logging.OrNull(log)
	root := ui.NewContainer(m.desc.Name)
	if err := m.render(root, ActionMain, nil, log); err != nil {
		root.Release()
		return nil, err
	}
	return root, nil
}

// Close does nothing: no process outlives a request.
func (m *processModule) Close() error { return nil }

// render runs action and replaces root's content with the returned spec.
// An empty data payload keeps the current content.
func (m *processModule) render(root *ui.Widget, action string, values map[string]string, log hclog.Logger) error {
	resp, err := m.exec.Execute(m.desc, &Request{Action: action, Plugin: m.desc.Name, Values: values})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("action %s failed: %s", action, resp.Error)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil
	}

	var spec ui.Node
	if err := json.Unmarshal(resp.Data, &spec); err != nil {
		return fmt.Errorf("parse widget spec: %w", err)
	}
	tree, err := ui.FromSpec(spec)
	if err != nil {
		return err
	}

	m.bind(root, tree, log)
	root.Clear()
	return root.Add(tree)
}

// bind routes button clicks in tree back to the plugin process.
func (m *processModule) bind(root, tree *ui.Widget, log hclog.Logger) {
	tree.Walk(func(w *ui.Widget) bool {
		action := w.Action()
		if w.Kind() != ui.KindButton || action == "" {
			return true
		}
		w.OnClick(func() {
			if err := m.render(root, action, root.Values(), log); err != nil {
				log.Error("plugin action failed", "action", action, "error", err)
			}
		})
		return true
	})
}
