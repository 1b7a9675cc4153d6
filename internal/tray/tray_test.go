package tray

import (
	"testing"

	"github.com/ayusman/vitruvius/internal/gesture"
)

func TestTitles(t *testing.T) {
	if got := toggleTitle(true); got != "● Publishing" {
		t.Errorf("toggleTitle(true) = %q", got)
	}
	if got := toggleTitle(false); got != "○ Paused" {
		t.Errorf("toggleTitle(false) = %q", got)
	}
	if got := lastGestureTitle(nil); got != "Last: none" {
		t.Errorf("lastGestureTitle(nil) = %q", got)
	}
	if got := lastGestureTitle(&gesture.Event{Gesture: gesture.WaveRight, Score: 0.87}); got != "Last: wave_right (87%)" {
		t.Errorf("lastGestureTitle() = %q", got)
	}
	if got := trackingTitle(0, false); got != "Tracking: nobody" {
		t.Errorf("trackingTitle() = %q", got)
	}
	if got := trackingTitle(72057594037927936, true); got != "Tracking: body 72057594037927936" {
		t.Errorf("trackingTitle() = %q", got)
	}
}

func TestTray_Toggle(t *testing.T) {
	tr := New(true)

	var got []bool
	tr.OnToggle(func(enabled bool) {
		got = append(got, enabled)
		// Reading state from the callback must not deadlock
		_ = tr.IsEnabled()
	})

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("expected enabled after two toggles")
	}
}

func TestTray_SetEnabledBeforeRun(t *testing.T) {
	tr := New(false)
	called := false
	tr.OnToggle(func(bool) { called = true })

	tr.SetEnabled(true)
	tr.SetLastGesture(gesture.Event{Gesture: gesture.Menu})
	tr.SetTracking(1, true)

	if !tr.IsEnabled() {
		t.Error("SetEnabled(true) not applied")
	}
	if called {
		t.Error("SetEnabled must not call OnToggle")
	}
}

func TestTray_Dashboard(t *testing.T) {
	tr := New(true)
	opened := false
	tr.OnDashboard(func() { opened = true })

	tr.handleDashboard()
	if !opened {
		t.Error("dashboard callback not called")
	}
}
