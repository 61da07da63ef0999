package ui

import "fmt"

// Node is the serializable form of a widget subtree. The web window renders it and
// executable plugins describe their interface with it.
type Node struct {
	ID       string `json:"id,omitempty"`
	Kind     Kind   `json:"kind"`
	Name     string `json:"name,omitempty"`
	Text     string `json:"text,omitempty"`
	Value    string `json:"value,omitempty"`
	Action   string `json:"action,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// Snapshot captures the current state of the subtree.
func (w *Widget) Snapshot() Node {
	w.mu.RLock()
	n := Node{
		ID:     w.id,
		Kind:   w.kind,
		Name:   w.name,
		Text:   w.text,
		Value:  w.value,
		Action: w.action,
	}
	children := make([]*Widget, len(w.children))
	copy(children, w.children)
	w.mu.RUnlock()

	for _, c := range children {
		n.Children = append(n.Children, c.Snapshot())
	}
	return n
}

// FromSpec builds a fresh widget tree from a node description. IDs in the spec are
// ignored; every widget gets a new one. Buttons keep their action name and have no
// click handler until the caller binds one.
func FromSpec(spec Node) (*Widget, error) {
	var w *Widget
	switch spec.Kind {
	case KindContainer:
		w = NewContainer(spec.Name)
	case KindLabel:
		w = NewLabel(spec.Text)
	case KindText:
		w = NewText(spec.Text)
	case KindButton:
		w = NewButton(spec.Text, nil)
		w.action = spec.Action
	case KindInput:
		w = NewInput(spec.Name, spec.Value)
	default:
		return nil, fmt.Errorf("unknown widget kind %q", spec.Kind)
	}

	if len(spec.Children) > 0 && w.kind != KindContainer {
		return nil, fmt.Errorf("%s widget cannot have children", w.kind)
	}

	for _, childSpec := range spec.Children {
		child, err := FromSpec(childSpec)
		if err != nil {
			w.Release()
			return nil, err
		}
		if err := w.Add(child); err != nil {
			w.Release()
			return nil, err
		}
	}
	return w, nil
}
