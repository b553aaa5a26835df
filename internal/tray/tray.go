// Package tray provides a system tray shell for JaJanken: a capture toggle,
// a status line and shortcuts to the web preview.
package tray

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/jajanken/internal/app"
	"github.com/ayusman/jajanken/internal/store"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle  func(capturing bool) error
	onOpen    func()
	onQuit    func()
	capturing bool
	status    string
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a new Tray. Capture starts off; the toggle turns it on.
func New() *Tray {
	return &Tray{
		status: "Ready",
	}
}

// OnToggle sets the callback run when capture is switched on or off. A
// failing callback leaves the toggle unchanged and shows the error.
func (t *Tray) OnToggle(fn func(capturing bool) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback for the "Open Preview" menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
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
	systray.Run(t.onReady, func() {})
}

// Quit stops a running tray.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
func (t *Tray) onReady() {
	systray.SetTitle("JaJanken")
	systray.SetTooltip("JaJanken fingertip tracker")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.capturing), "Start or stop the camera")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(t.status, "Last round or capture error")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Preview...", "Open the preview in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit JaJanken")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// handleToggle flips capture and reports a failed start on the status line.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	want := !t.capturing
	callback := t.onToggle
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		if err := callback(want); err != nil {
			t.SetError(err)
			return
		}
	}

	t.mu.Lock()
	t.capturing = want
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(want))
	}
	t.mu.Unlock()

	if want {
		t.SetStatus("Watching for a throw")
	} else {
		t.SetStatus("Paused")
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Watch polls status every interval until ctx ends and keeps the toggle in
// step with capture that stopped or started without the tray, such as a
// session stopped by a detector failure or a start over HTTP.
func (t *Tray) Watch(ctx context.Context, status func() app.Status, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sync(status())
		}
	}
}

func (t *Tray) sync(st app.Status) {
	running := st.State == app.StateRunning

	t.mu.Lock()
	if t.capturing == running {
		t.mu.Unlock()
		return
	}
	t.capturing = running
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(running))
	}
	t.mu.Unlock()

	switch {
	case running:
		t.SetStatus("Watching for a throw")
	case st.State == app.StateFailed:
		t.SetStatus("Camera error: " + st.Error)
	default:
		t.SetStatus("Paused")
	}
}

// SetStatus replaces the status line.
func (t *Tray) SetStatus(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = line
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(line)
	}
}

// SetRound shows rd on the status line.
func (t *Tray) SetRound(rd *store.Round) {
	t.SetStatus(RoundLine(rd))
}

// SetError shows a capture failure on the status line.
func (t *Tray) SetError(err error) {
	t.SetStatus(ErrorLine(err))
}

// Status returns the current status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// IsCapturing returns the current toggle state.
func (t *Tray) IsCapturing() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.capturing
}

// RoundLine formats a round for the status line.
func RoundLine(rd *store.Round) string {
	if rd == nil {
		return "Last: none"
	}
	return fmt.Sprintf("Last: %s vs %s, %s", rd.Player, rd.Opponent, rd.Outcome)
}

// ErrorLine formats a capture failure for the status line.
func ErrorLine(err error) string {
	if err == nil {
		return "Ready"
	}
	return "Camera error: " + err.Error()
}

func toggleTitle(capturing bool) string {
	if capturing {
		return "● Capturing"
	}
	return "○ Paused"
}
