package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/toolsuite/internal/plugin"
	"github.com/ayusman/toolsuite/internal/ui"
)

func stubScripts(t *testing.T, err error) *[]string {
	t.Helper()
	var ran []string
	prev := runScript
	runScript = func(script string) error {
		ran = append(ran, script)
		return err
	}
	t.Cleanup(func() { runScript = prev })
	return &ran
}

func decodePanel(t *testing.T, resp plugin.Response) ui.Node {
	t.Helper()
	require.True(t, resp.Success, resp.Error)
	var n ui.Node
	require.NoError(t, json.Unmarshal(resp.Data, &n))
	return n
}

func TestDescribe(t *testing.T) {
	resp := serve(strings.NewReader(`{"action":"describe","plugin":"System Control"}`))
	require.True(t, resp.Success)

	var d struct {
		Actions []string `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &d))
	assert.Contains(t, d.Actions, plugin.ActionMain)
	assert.Contains(t, d.Actions, "volume-mute")
	assert.Len(t, d.Actions, len(controls)+1)
}

func TestMain_RendersPanel(t *testing.T) {
	n := decodePanel(t, handle(plugin.Request{Action: plugin.ActionMain}))

	assert.Equal(t, ui.KindContainer, n.Kind)
	require.Len(t, n.Children, len(controls)+1)
	assert.Equal(t, "volume-up", n.Children[0].Action)

	_, err := ui.FromSpec(n)
	assert.NoError(t, err)
}

func TestControl_RunsScript(t *testing.T) {
	ran := stubScripts(t, nil)

	n := decodePanel(t, handle(plugin.Request{Action: "media-next"}))
	require.Len(t, *ran, 1)
	assert.Contains(t, (*ran)[0], "key code 101")
	assert.Equal(t, "Next", n.Children[len(n.Children)-1].Text)
}

func TestControl_ScriptFailureIsShown(t *testing.T) {
	stubScripts(t, errors.New("not permitted"))

	n := decodePanel(t, handle(plugin.Request{Action: "volume-up"}))
	assert.Contains(t, n.Children[len(n.Children)-1].Text, "not permitted")
}

func TestUnknownAction(t *testing.T) {
	resp := handle(plugin.Request{Action: "launch-rockets"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "unknown action")
}

func TestBadRequest(t *testing.T) {
	resp := serve(strings.NewReader("{"))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "decode")
}
