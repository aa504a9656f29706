// Package tray provides a system tray control for the stylecam pipeline.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(start bool)
	onPanel  func()
	onQuit   func()

	mu      sync.RWMutex
	running bool
	style   string

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuStyle  *systray.MenuItem
}

// New creates a new Tray in the stopped state.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback for the Start/Stop item. It receives true when
// the user asked to start.
func (t *Tray) OnToggle(fn func(start bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpenPanel sets the callback for the control panel item.
func (t *Tray) OnOpenPanel(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPanel = fn
}

// OnQuit sets the callback for the quit item.
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

// Quit closes the tray and unblocks Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Stylecam")
	systray.SetTooltip("Stylecam virtual camera")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.running), "Start or stop the virtual camera")
	systray.AddSeparator()
	t.menuStyle = systray.AddMenuItem(styleTitle(t.style), "Current style")
	t.menuStyle.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuPanel := systray.AddMenuItem("Open Control Panel...", "Open the control panel in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Stylecam")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuPanel.ClickedCh:
				t.handlePanel()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// handleToggle asks for the opposite of the displayed state. The display
// changes only when SetRunning reports the outcome.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	start := !t.running
	callback := t.onToggle
	t.mu.RUnlock()

	if callback != nil {
		callback(start)
	}
}

func (t *Tray) handlePanel() {
	t.mu.RLock()
	callback := t.onPanel
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

// SetRunning updates the Start/Stop item.
func (t *Tray) SetRunning(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = running
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(running))
	}
}

// SetStyle updates the current style label.
func (t *Tray) SetStyle(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.style = name
	if t.menuStyle != nil {
		t.menuStyle.SetTitle(styleTitle(name))
	}
}

// IsRunning returns the displayed running state.
func (t *Tray) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

func toggleTitle(running bool) string {
	if running {
		return "■ Stop Camera"
	}
	return "▶ Start Camera"
}

func styleTitle(name string) string {
	if name == "" {
		return "Style: none"
	}
	return "Style: " + name
}
