// Command keyboard is a gesture hook that presses a key for each gesture,
// e.g. arrow keys for swipes to drive a slide show. The key bindings come
// from the "config" object of its hook.json:
//
//	{"swipe_left": {"key": "right"}, "menu": {"key": "f", "modifiers": ["cmd"]}}
//
// Keystrokes are sent with osascript on macOS and xdotool elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ayusman/vitruvius/internal/hook"
)

// Binding is the key pressed for one gesture.
type Binding struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // cmd, alt, ctrl, shift
}

// appleModifiers maps modifier names to AppleScript equivalents.
var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// xdoModifiers maps modifier names to xdotool key names.
var xdoModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

// appleKeyCodes holds keys AppleScript cannot type as text.
var appleKeyCodes = map[string]int{
	"left":   123,
	"right":  124,
	"down":   125,
	"up":     126,
	"space":  49,
	"return": 36,
	"escape": 53,
}

func main() {
	var req hook.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("decode request: %w", err))
		return
	}
	writeResponse(handle(req, runtime.GOOS, run))
}

func handle(req hook.Request, goos string, runner func(name string, args ...string) error) error {
	bindings := map[string]Binding{}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &bindings); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}

	b, ok := bindings[req.Gesture]
	if !ok {
		return fmt.Errorf("no key bound to %s", req.Gesture)
	}
	if b.Key == "" {
		return fmt.Errorf("key is required for %s", req.Gesture)
	}

	name, args := command(b, goos)
	return runner(name, args...)
}

// command returns the program and arguments that press the binding.
func command(b Binding, goos string) (string, []string) {
	if goos == "darwin" {
		return "osascript", []string{"-e", appleScript(b)}
	}

	keys := make([]string, 0, len(b.Modifiers)+1)
	for _, m := range b.Modifiers {
		if mod, ok := xdoModifiers[strings.ToLower(m)]; ok {
			keys = append(keys, mod)
		}
	}
	keys = append(keys, xdoKey(b.Key))
	return "xdotool", []string{"key", strings.Join(keys, "+")}
}

func appleScript(b Binding) string {
	var mods []string
	for _, m := range b.Modifiers {
		if mod, ok := appleModifiers[strings.ToLower(m)]; ok {
			mods = append(mods, mod)
		}
	}

	press := fmt.Sprintf("keystroke %q", b.Key)
	if code, ok := appleKeyCodes[strings.ToLower(b.Key)]; ok {
		press = fmt.Sprintf("key code %d", code)
	}
	if len(mods) > 0 {
		press += " using {" + strings.Join(mods, ", ") + "}"
	}
	return `tell application "System Events" to ` + press
}

func xdoKey(key string) string {
	switch strings.ToLower(key) {
	case "left":
		return "Left"
	case "right":
		return "Right"
	case "up":
		return "Up"
	case "down":
		return "Down"
	case "return":
		return "Return"
	case "escape":
		return "Escape"
	}
	return key
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeResponse(err error) {
	resp := hook.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
