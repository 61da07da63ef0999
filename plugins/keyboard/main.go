// Package main provides a keyboard plugin for macOS.
// It sends keystrokes and shortcuts typed into its form via AppleScript.
//
// Build it into the plugin folder before launching:
//
//	go build -o plugins/keyboard/keyboard ./plugins/keyboard
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ayusman/toolsuite/internal/plugin"
	"github.com/ayusman/toolsuite/internal/ui"
)

const actionSend = "send"

// Form input names.
const (
	inputKey       = "key"
	inputModifiers = "modifiers"
)

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// runScript executes an AppleScript command. Replaced in tests.
var runScript = runAppleScript

func main() {
	json.NewEncoder(os.Stdout).Encode(serve(os.Stdin))
}

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
		return success(map[string][]string{"actions": {plugin.ActionMain, actionSend}})
	case plugin.ActionMain:
		return success(form("", "", ""))
	case actionSend:
		key := req.Values[inputKey]
		mods := req.Values[inputModifiers]
		if err := send(key, splitModifiers(mods)); err != nil {
			return success(form(key, mods, err.Error()))
		}
		return success(form(key, mods, "Sent "+describe(key, mods)))
	default:
		return failure(fmt.Sprintf("unknown action: %s", req.Action))
	}
}

func send(key string, modifiers []string) error {
	if key == "" {
		return errors.New("key is required")
	}
	return runScript(buildKeystrokeScript(key, modifiers))
}

func describe(key, mods string) string {
	if strings.TrimSpace(mods) == "" {
		return key
	}
	return strings.Join(append(splitModifiers(mods), key), "+")
}

// splitModifiers parses a comma or space separated modifier list.
func splitModifiers(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '+' })
}

// form renders the keystroke form, keeping what the user typed.
func form(key, mods, status string) ui.Node {
	return ui.Node{
		Kind: ui.KindContainer,
		Name: "Keyboard",
		Children: []ui.Node{
			{Kind: ui.KindInput, Name: inputKey, Value: key},
			{Kind: ui.KindInput, Name: inputModifiers, Value: mods},
			{Kind: ui.KindButton, Text: "Send", Action: actionSend},
			{Kind: ui.KindLabel, Text: status},
		},
	}
}

// buildKeystrokeScript generates an AppleScript for the given key and modifiers.
func buildKeystrokeScript(key string, modifiers []string) string {
	key = strings.ReplaceAll(key, `"`, `\"`)

	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}

	modifierList := strings.Join(appleModifiers, ", ")
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, key, modifierList)
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
