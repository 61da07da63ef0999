// Package main provides a system control plugin for macOS.
// It handles volume, brightness, and media playback controls via AppleScript.
//
// Build it into the plugin folder before launching:
//
//	go build -o plugins/system-control/system-control ./plugins/system-control
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/ayusman/toolsuite/internal/plugin"
	"github.com/ayusman/toolsuite/internal/ui"
)

// control is one button of the panel.
type control struct {
	action string
	label  string
	script string
}

var controls = []control{
	{"volume-up", "Volume +", `set volume output volume ((output volume of (get volume settings)) + 10)`},
	{"volume-down", "Volume -", `set volume output volume ((output volume of (get volume settings)) - 10)`},
	{"volume-mute", "Mute", `set volume output muted (not (output muted of (get volume settings)))`},
	{"brightness-up", "Brightness +", keyCode(144)},
	{"brightness-down", "Brightness -", keyCode(145)},
	{"media-play-pause", "Play/Pause", keyCode(100)},
	{"media-next", "Next", keyCode(101)},
	{"media-prev", "Previous", keyCode(98)},
}

func keyCode(code int) string {
	return fmt.Sprintf("tell application \"System Events\"\n\tkey code %d\nend tell", code)
}

// runScript executes an AppleScript command. Replaced in tests.
var runScript = runAppleScript

func main() {
	json.NewEncoder(os.Stdout).Encode(serve(os.Stdin))
}

// serve decodes one request and produces its response.
func serve(r io.Reader) plugin.Response {
	var req plugin.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return failure(fmt.Sprintf("failed to decode request: %v", err))
	}
	return handle(req)
}

func handle(req plugin.Request) plugin.Response {
	switch req.Action {
	case plugin.ActionDescribe:
		actions := []string{plugin.ActionMain}
		for _, c := range controls {
			actions = append(actions, c.action)
		}
		return success(map[string][]string{"actions": actions})
	case plugin.ActionMain:
		return success(panel(""))
	}

	for _, c := range controls {
		if c.action != req.Action {
			continue
		}
		if err := runScript(c.script); err != nil {
			return success(panel(fmt.Sprintf("%s failed: %v", c.label, err)))
		}
		return success(panel(c.label))
	}
	return failure(fmt.Sprintf("unknown action: %s", req.Action))
}

// panel renders the control buttons and the last status line.
func panel(status string) ui.Node {
	root := ui.Node{Kind: ui.KindContainer, Name: "System Control"}
	for _, c := range controls {
		root.Children = append(root.Children, ui.Node{Kind: ui.KindButton, Text: c.label, Action: c.action})
	}
	root.Children = append(root.Children, ui.Node{Kind: ui.KindLabel, Text: status})
	return root
}

func success(data any) plugin.Response {
	raw, err := json.Marshal(data)
	if err != nil {
		return failure(err.Error())
	}
	return plugin.Response{Success: true, Data: raw}
}

func failure(msg string) plugin.Response {
	return plugin.Response{Success: false, Error: msg}
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
