// Package api provides the HTTP handlers for the tool suite's window and scripts.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/toolsuite/internal/plugin"
)

// Suite is the set of suite operations the API drives. *app.App implements it.
type Suite interface {
	// Plugins returns the current catalog.
	Plugins() []plugin.Descriptor
	// Rescan rediscovers the plugin root and returns the new catalog.
	Rescan() ([]plugin.Descriptor, error)
	// Launch mounts the plugin whose name or alias is key.
	Launch(key string) error
	// CloseActive unmounts the active plugin.
	CloseActive()
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
