package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/toolsuite/internal/plugin"
	"github.com/ayusman/toolsuite/internal/ui"
)

func TestBuildKeystrokeScript(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		modifiers []string
		want      string
	}{
		{"plain", "a", nil, `tell application "System Events" to keystroke "a"`},
		{"one modifier", "c", []string{"cmd"}, `tell application "System Events" to keystroke "c" using {command down}`},
		{"mixed case", "z", []string{"Cmd", "SHIFT"}, `tell application "System Events" to keystroke "z" using {command down, shift down}`},
		{"unknown modifiers dropped", "x", []string{"hyper"}, `tell application "System Events" to keystroke "x"`},
		{"quotes escaped", `"`, nil, `tell application "System Events" to keystroke "\""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildKeystrokeScript(tt.key, tt.modifiers))
		})
	}
}

func TestSplitModifiers(t *testing.T) {
	assert.Equal(t, []string{"cmd", "shift"}, splitModifiers("cmd, shift"))
	assert.Equal(t, []string{"ctrl", "alt"}, splitModifiers("ctrl+alt"))
	assert.Empty(t, splitModifiers("  "))
}

func TestDescribe(t *testing.T) {
	resp := serve(strings.NewReader(`{"action":"describe"}`))
	require.True(t, resp.Success)
	assert.JSONEq(t, `{"actions":["main","send"]}`, string(resp.Data))
}

func TestSend(t *testing.T) {
	var ran string
	prev := runScript
	runScript = func(script string) error { ran = script; return nil }
	t.Cleanup(func() { runScript = prev })

	resp := handle(plugin.Request{
		Action: actionSend,
		Values: map[string]string{inputKey: "v", inputModifiers: "cmd"},
	})
	require.True(t, resp.Success)
	assert.Contains(t, ran, `keystroke "v" using {command down}`)

	var n ui.Node
	require.NoError(t, json.Unmarshal(resp.Data, &n))
	assert.Equal(t, "v", n.Children[0].Value)
	assert.Equal(t, "Sent cmd+v", n.Children[3].Text)
}

func TestSend_RequiresKey(t *testing.T) {
	prev := runScript
	runScript = func(string) error { t.Fatal("script must not run"); return nil }
	t.Cleanup(func() { runScript = prev })

	resp := handle(plugin.Request{Action: actionSend})
	require.True(t, resp.Success)

	var n ui.Node
	require.NoError(t, json.Unmarshal(resp.Data, &n))
	assert.Equal(t, "key is required", n.Children[3].Text)
}

func TestUnknownAction(t *testing.T) {
	resp := handle(plugin.Request{Action: "type"})
	assert.False(t, resp.Success)
}
