package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// PluginLocation is implemented by suites whose plugin directory can be moved.
type PluginLocation interface {
	PluginDir() string
	MovePlugins(dir string) error
}

// SettingsHandler handles /api/settings/plugin-dir.
type SettingsHandler struct {
	loc  PluginLocation
	save func(dir string) error
}

// NewSettingsHandler creates a SettingsHandler. save, when set, persists a changed plugin
// directory.
func NewSettingsHandler(loc PluginLocation, save func(dir string) error) *SettingsHandler {
	return &SettingsHandler{loc: loc, save: save}
}

type pluginDirBody struct {
	PluginDir string `json:"plugin_dir"`
}

// ServeHTTP routes GET and PUT /api/settings/plugin-dir.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.TrimPrefix(r.URL.Path, "/api/settings/") != "plugin-dir" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, pluginDirBody{PluginDir: h.loc.PluginDir()})
	case http.MethodPut:
		h.move(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) move(w http.ResponseWriter, r *http.Request) {
	var body pluginDirBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(body.PluginDir) == "" {
		writeError(w, http.StatusBadRequest, "plugin_dir is required")
		return
	}

	before := h.loc.PluginDir()
	moveErr := h.loc.MovePlugins(body.PluginDir)

	// A partial move still switches the root, so the new location is saved either way.
	if dir := h.loc.PluginDir(); dir != before && h.save != nil {
		if err := h.save(dir); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save settings: "+err.Error())
			return
		}
	}
	if moveErr != nil {
		writeError(w, http.StatusInternalServerError, "Failed to move plugins: "+moveErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, pluginDirBody{PluginDir: h.loc.PluginDir()})
}
