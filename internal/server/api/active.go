package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/toolsuite/internal/host"
	"github.com/ayusman/toolsuite/internal/plugin"
	"github.com/ayusman/toolsuite/internal/ui"
)

// ActiveHandler exposes the mounted plugin and delivers user input to it.
type ActiveHandler struct {
	suite Suite
	host  *host.Host
}

// NewActiveHandler creates a new ActiveHandler.
func NewActiveHandler(s Suite, h *host.Host) *ActiveHandler {
	return &ActiveHandler{suite: s, host: h}
}

type activeResponse struct {
	State  string             `json:"state"`
	Name   string             `json:"name"`
	Plugin *plugin.Descriptor `json:"plugin,omitempty"`
	Tree   ui.Node            `json:"tree"`
}

type setValueRequest struct {
	Value *string `json:"value"`
}

// ServeHTTP routes /api/active and /api/active/widgets/{id}/{click|value}.
func (h *ActiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/active")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.get(w, r)
		case http.MethodDelete:
			h.close(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Expected: widgets/{id}/click or widgets/{id}/value
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] != "widgets" || parts[1] == "" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	id := parts[1]
	switch parts[2] {
	case "click":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.click(w, r, id)
	case "value":
		if r.Method != http.MethodPut {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.setValue(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *ActiveHandler) snapshot() activeResponse {
	resp := activeResponse{
		State: h.host.State().String(),
		Name:  h.host.ActiveName(),
		Tree:  h.host.Snapshot(),
	}
	if desc, ok := h.host.Active(); ok {
		resp.Plugin = &desc
	}
	return resp
}

// get handles GET /api/active.
func (h *ActiveHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot())
}

// close handles DELETE /api/active.
func (h *ActiveHandler) close(w http.ResponseWriter, r *http.Request) {
	h.suite.CloseActive()
	w.WriteHeader(http.StatusNoContent)
}

// click handles POST /api/active/widgets/{id}/click.
func (h *ActiveHandler) click(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.host.Click(id); err != nil {
		writeInputError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot())
}

// setValue handles PUT /api/active/widgets/{id}/value.
func (h *ActiveHandler) setValue(w http.ResponseWriter, r *http.Request, id string) {
	var req setValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	if err := h.host.SetValue(id, *req.Value); err != nil {
		writeInputError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot())
}

func writeInputError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, host.ErrWidgetNotFound):
		writeError(w, http.StatusNotFound, "Widget not found")
	case errors.Is(err, ui.ErrReleased):
		writeError(w, http.StatusConflict, "Widget has been released")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
