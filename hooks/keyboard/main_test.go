package main

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ayusman/vitruvius/internal/hook"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		name     string
		binding  Binding
		goos     string
		wantName string
		wantArgs []string
	}{
		{
			name:     "darwin text key",
			binding:  Binding{Key: "f", Modifiers: []string{"cmd", "shift"}},
			goos:     "darwin",
			wantName: "osascript",
			wantArgs: []string{"-e", `tell application "System Events" to keystroke "f" using {command down, shift down}`},
		},
		{
			name:     "darwin arrow",
			binding:  Binding{Key: "right"},
			goos:     "darwin",
			wantName: "osascript",
			wantArgs: []string{"-e", `tell application "System Events" to key code 124`},
		},
		{
			name:     "linux arrow with modifier",
			binding:  Binding{Key: "left", Modifiers: []string{"ctrl", "bogus"}},
			goos:     "linux",
			wantName: "xdotool",
			wantArgs: []string{"key", "ctrl+Left"},
		},
		{
			name:     "linux plain key",
			binding:  Binding{Key: "space"},
			goos:     "linux",
			wantName: "xdotool",
			wantArgs: []string{"key", "space"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args := command(tt.binding, tt.goos)
			if name != tt.wantName {
				t.Errorf("command() name = %q, want %q", name, tt.wantName)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("command() args = %q, want %q", args, tt.wantArgs)
			}
		})
	}
}

func TestHandle(t *testing.T) {
	config := json.RawMessage(`{"swipe_left": {"key": "right"}, "menu": {"key": ""}}`)

	var gotName string
	var gotArgs []string
	runner := func(name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}

	if err := handle(hook.Request{Gesture: "swipe_left", Config: config}, "linux", runner); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if gotName != "xdotool" || !reflect.DeepEqual(gotArgs, []string{"key", "Right"}) {
		t.Errorf("ran %s %v", gotName, gotArgs)
	}

	tests := []struct {
		name string
		req  hook.Request
		want string
	}{
		{"unbound", hook.Request{Gesture: "zoom_in", Config: config}, "no key bound"},
		{"empty key", hook.Request{Gesture: "menu", Config: config}, "key is required"},
		{"bad config", hook.Request{Gesture: "menu", Config: json.RawMessage(`[1]`)}, "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handle(tt.req, "linux", runner)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("handle() error = %v, want containing %q", err, tt.want)
			}
		})
	}

	failing := func(string, ...string) error { return errors.New("no display") }
	if err := handle(hook.Request{Gesture: "swipe_left", Config: config}, "linux", failing); err == nil {
		t.Error("handle() should return runner errors")
	}
}
