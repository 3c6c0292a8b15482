// Package tray provides a system tray front-end for the gesture game.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/gesturefall/internal/app"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool) error
	onRetry  func()
	onOpenUI func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuHealth  *systray.MenuItem
	menuGesture *systray.MenuItem
	menuRetry   *systray.MenuItem
}

// New creates a new Tray with predictions off.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback run when predictions are toggled. A failed
// toggle leaves the menu unchanged.
func (t *Tray) OnToggle(fn func(enabled bool) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnRetry sets the callback run when Retry is clicked.
func (t *Tray) OnRetry(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRetry = fn
}

// OnOpenUI sets the callback run when the browser UI menu item is clicked.
func (t *Tray) OnOpenUI(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpenUI = fn
}

// OnQuit sets the callback run when Quit is clicked.
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

// Quit closes the tray.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Gesturefall")
	systray.SetTooltip("Gesturefall webcam gesture game")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle predictions")
	systray.AddSeparator()

	t.menuHealth = systray.AddMenuItem(HealthTitle(app.State{}), "Current health")
	t.menuHealth.Disable()
	t.menuGesture = systray.AddMenuItem(GestureTitle(""), "Top predicted gesture")
	t.menuGesture.Disable()
	t.menuRetry = systray.AddMenuItem("Retry", "Start a new round")
	t.menuRetry.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the game in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Gesturefall")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuRetry.ClickedCh:
				t.handle(func() func() { return t.onRetry })
			case <-menuOpen.ClickedCh:
				t.handle(func() func() { return t.onOpenUI })
			case <-menuQuit.ClickedCh:
				t.handle(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.RLock()
	want := !t.enabled
	callback := t.onToggle
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		if err := callback(want); err != nil {
			return
		}
	}
	t.setEnabled(want)
}

func (t *Tray) handle(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) setEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// Update refreshes the menu from a published state.
func (t *Tray) Update(st app.State) {
	t.setEnabled(st.Enabled)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuHealth == nil {
		return
	}
	t.menuHealth.SetTitle(HealthTitle(st))
	t.menuGesture.SetTitle(GestureTitle(st.Game.Top))
	if st.Game.Over {
		t.menuRetry.Enable()
	} else {
		t.menuRetry.Disable()
	}
}

// Watch applies every state from updates until the channel closes.
func (t *Tray) Watch(updates <-chan app.State) {
	for st := range updates {
		t.Update(st)
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Predictions on"
	}
	return "○ Predictions off"
}

// HealthTitle renders the health menu line.
func HealthTitle(st app.State) string {
	if st.Game.Over {
		return "Health: 0 (game over)"
	}
	return fmt.Sprintf("Health: %d (%s)", st.Game.Health, st.Game.Band)
}

// GestureTitle renders the last gesture menu line.
func GestureTitle(label string) string {
	if label == "" {
		return "Last: none"
	}
	return "Last: " + label
}
