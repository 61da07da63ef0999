package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/toolsuite/internal/store"
)

// DefaultLaunchLimit caps GET /api/launches when no limit is given.
const DefaultLaunchLimit = 50

// LaunchHandler serves the launch history.
type LaunchHandler struct {
	store *store.Store
}

// NewLaunchHandler creates a new LaunchHandler with the given store.
func NewLaunchHandler(s *store.Store) *LaunchHandler {
	return &LaunchHandler{store: s}
}

type listLaunchesResponse struct {
	Launches []*store.Launch `json:"launches"`
}

// ServeHTTP handles GET /api/launches?limit=N.
func (h *LaunchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := DefaultLaunchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	launches, err := h.store.Launches().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list launches")
		return
	}

	writeJSON(w, http.StatusOK, listLaunchesResponse{Launches: launches})
}
