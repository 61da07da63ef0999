package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/toolsuite/internal/plugin"
)

// PluginHandler handles the plugin catalog and launches.
type PluginHandler struct {
	suite Suite
}

// NewPluginHandler creates a new PluginHandler.
func NewPluginHandler(s Suite) *PluginHandler {
	return &PluginHandler{suite: s}
}

type listPluginsResponse struct {
	Plugins []plugin.Descriptor `json:"plugins"`
}

// ServeHTTP routes /api/plugins, /api/plugins/rescan and /api/plugins/{name}/launch.
func (h *PluginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/plugins")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)

	case path == "rescan":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.rescan(w, r)

	case strings.HasSuffix(path, "/launch"):
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.launch(w, r, strings.TrimSuffix(path, "/launch"))

	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// list handles GET /api/plugins.
func (h *PluginHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listPluginsResponse{Plugins: h.suite.Plugins()})
}

// rescan handles POST /api/plugins/rescan.
func (h *PluginHandler) rescan(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.suite.Rescan()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to scan plugins: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, listPluginsResponse{Plugins: catalog})
}

// launch handles POST /api/plugins/{name}/launch.
func (h *PluginHandler) launch(w http.ResponseWriter, r *http.Request, key string) {
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	if err := h.suite.Launch(key); err != nil {
		writeLaunchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "launched", "plugin": key})
}

func writeLaunchError(w http.ResponseWriter, err error) {
	if errors.Is(err, plugin.ErrPluginNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if kind, ok := plugin.KindOf(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Kind: kind.String()})
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
