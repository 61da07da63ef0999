package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLocation struct {
	dir     string
	moveErr error
	// keep leaves dir unchanged on a failed move.
	keep bool
}

func (l *fakeLocation) PluginDir() string { return l.dir }

func (l *fakeLocation) MovePlugins(dir string) error {
	if l.moveErr == nil || !l.keep {
		l.dir = dir
	}
	return l.moveErr
}

func TestSettingsHandler_Get(t *testing.T) {
	h := NewSettingsHandler(&fakeLocation{dir: "/plugins"}, nil)

	rec := serve(h, http.MethodGet, "/api/settings/plugin-dir", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/plugins", decode[pluginDirBody](t, rec).PluginDir)
}

func TestSettingsHandler_Move(t *testing.T) {
	loc := &fakeLocation{dir: "/old"}
	var saved []string
	h := NewSettingsHandler(loc, func(dir string) error {
		saved = append(saved, dir)
		return nil
	})

	rec := serve(h, http.MethodPut, "/api/settings/plugin-dir", []byte(`{"plugin_dir":"/new"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/new", decode[pluginDirBody](t, rec).PluginDir)
	assert.Equal(t, []string{"/new"}, saved)

	rec = serve(h, http.MethodPut, "/api/settings/plugin-dir", []byte(`{"plugin_dir":"/new"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"/new"}, saved, "an unchanged directory is not saved again")
}

func TestSettingsHandler_PartialMoveIsSaved(t *testing.T) {
	loc := &fakeLocation{dir: "/old", moveErr: errors.New("/new/Counter already exists")}
	var saved []string
	h := NewSettingsHandler(loc, func(dir string) error {
		saved = append(saved, dir)
		return nil
	})

	rec := serve(h, http.MethodPut, "/api/settings/plugin-dir", []byte(`{"plugin_dir":"/new"}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "already exists")
	assert.Equal(t, []string{"/new"}, saved)
}

func TestSettingsHandler_FailedMoveIsNotSaved(t *testing.T) {
	loc := &fakeLocation{dir: "/old", moveErr: errors.New("permission denied"), keep: true}
	saved := false
	h := NewSettingsHandler(loc, func(string) error {
		saved = true
		return nil
	})

	rec := serve(h, http.MethodPut, "/api/settings/plugin-dir", []byte(`{"plugin_dir":"/new"}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, saved)
	assert.Equal(t, "/old", loc.dir)
}

func TestSettingsHandler_BadRequests(t *testing.T) {
	h := NewSettingsHandler(&fakeLocation{dir: "/old"}, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   []byte
		status int
	}{
		{"invalid json", http.MethodPut, "/api/settings/plugin-dir", []byte(`{`), http.StatusBadRequest},
		{"empty dir", http.MethodPut, "/api/settings/plugin-dir", []byte(`{"plugin_dir":" "}`), http.StatusBadRequest},
		{"unknown setting", http.MethodGet, "/api/settings/theme", nil, http.StatusNotFound},
		{"wrong method", http.MethodPost, "/api/settings/plugin-dir", nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
