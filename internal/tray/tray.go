// Package tray provides a system tray menu for the Vitruvius gesture service.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/vitruvius/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	enabled     bool
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
	menuTracking    *systray.MenuItem
}

// New creates a new Tray instance showing the given publishing state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnToggle sets the callback function to be called when publishing is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback function to be called when the dashboard menu item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu, e.g. on a signal.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
func (t *Tray) onReady() {
	systray.SetTitle("Vitruvius")
	systray.SetTooltip("Vitruvius Gesture Publisher")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture publishing")
	systray.AddSeparator()

	t.menuTracking = systray.AddMenuItem(trackingTitle(0, false), "Tracked body")
	t.menuTracking.Disable()
	t.menuLastGesture = systray.AddMenuItem(lastGestureTitle(nil), "Last recognized gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Vitruvius")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetEnabled updates the publishing state without calling OnToggle.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(e gesture.Event) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastGestureTitle(&e))
	}
}

// SetTracking updates the tracked body display in the menu.
func (t *Tray) SetTracking(trackingID uint64, tracked bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuTracking != nil {
		t.menuTracking.SetTitle(trackingTitle(trackingID, tracked))
	}
}

// IsEnabled returns the current publishing state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Publishing"
	}
	return "○ Paused"
}

func lastGestureTitle(e *gesture.Event) string {
	if e == nil {
		return "Last: none"
	}
	return fmt.Sprintf("Last: %s (%.0f%%)", e.Gesture, e.Score*100)
}

func trackingTitle(trackingID uint64, tracked bool) string {
	if !tracked {
		return "Tracking: nobody"
	}
	return fmt.Sprintf("Tracking: body %d", trackingID)
}
