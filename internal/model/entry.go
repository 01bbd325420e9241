package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Status is the runtime lifecycle state of an application entry.
type Status int

const (
	StatusNotRunning Status = iota
	StatusLaunching
	StatusRunning
	StatusFailed
)

var statusNames = [...]string{"not_running", "launching", "running", "failed"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(b))
}

// RuntimeState holds the fields of an entry that only exist while the
// application is tracked. It is the unit copied in and out of the registry.
type RuntimeState struct {
	ProcessID         int          `yaml:"pid,omitempty"       json:"pid,omitempty"`
	WindowHandle      WindowHandle `yaml:"window,omitempty"    json:"window,omitempty"`
	Status            Status       `yaml:"status"              json:"status"`
	LastError         string       `yaml:"error,omitempty"     json:"error,omitempty"`
	LastObservedRect  Rect         `yaml:"observed"            json:"observed"`
	LastObservedStyle int64        `yaml:"style,omitempty"     json:"style,omitempty"`
}

// ApplicationEntry is one application inside a profile: what to launch,
// where its window belongs, and what is currently known about it.
//
// Exported fields are persisted. Runtime fields sit behind a mutex because a
// monitor loop, the profile applier and status refreshes may all touch the
// same entry; conflicting writes resolve last-write-wins.
type ApplicationEntry struct {
	ExecutablePath     string `yaml:"executable_path"               json:"executable_path"`
	DisplayName        string `yaml:"name"                          json:"name"`
	X                  int    `yaml:"x"                             json:"x"`
	Y                  int    `yaml:"y"                             json:"y"`
	Width              int    `yaml:"width"                         json:"width"`
	Height             int    `yaml:"height"                        json:"height"`
	KillOnSwitch       bool   `yaml:"kill_on_switch,omitempty"      json:"kill_on_switch,omitempty"`
	LaunchDelaySeconds int    `yaml:"launch_delay_seconds,omitempty" json:"launch_delay_seconds,omitempty"`
	AssignedMonitorID  string `yaml:"assigned_monitor_id,omitempty" json:"assigned_monitor_id,omitempty"`

	mu         sync.Mutex
	state      RuntimeState
	forceUntil time.Time
}

// NewEntry creates an entry with a saved rectangle.
func NewEntry(path, name string, r Rect) *ApplicationEntry {
	return &ApplicationEntry{
		ExecutablePath: path,
		DisplayName:    name,
		X:              r.X,
		Y:              r.Y,
		Width:          r.Width,
		Height:         r.Height,
	}
}

// Persisted returns a copy holding only the persisted fields, taken under the
// entry lock so a monitor writing geometry cannot tear it.
func (e *ApplicationEntry) Persisted() *ApplicationEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &ApplicationEntry{
		ExecutablePath:     e.ExecutablePath,
		DisplayName:        e.DisplayName,
		X:                  e.X,
		Y:                  e.Y,
		Width:              e.Width,
		Height:             e.Height,
		KillOnSwitch:       e.KillOnSwitch,
		LaunchDelaySeconds: e.LaunchDelaySeconds,
		AssignedMonitorID:  e.AssignedMonitorID,
	}
}

// Name returns the display name, falling back to the executable base name.
func (e *ApplicationEntry) Name() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return filepath.Base(e.ExecutablePath)
}

// SavedRect returns the saved geometry.
func (e *ApplicationEntry) SavedRect() Rect {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Rect{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
}

// HasSavedPosition reports whether a usable saved geometry exists.
func (e *ApplicationEntry) HasSavedPosition() bool {
	return !e.SavedRect().IsEmpty()
}

// SetSavedRect overwrites the saved geometry.
func (e *ApplicationEntry) SetSavedRect(r Rect) {
	e.mu.Lock()
	e.X, e.Y, e.Width, e.Height = r.X, r.Y, r.Width, r.Height
	e.mu.Unlock()
}

// ClearSavedRect forgets the saved geometry so the next launch is a fresh one.
func (e *ApplicationEntry) ClearSavedRect() {
	e.SetSavedRect(Rect{})
}

// Reposition stores a new geometry together with the display it now lives on.
func (e *ApplicationEntry) Reposition(r Rect, monitorID string) {
	e.mu.Lock()
	e.X, e.Y, e.Width, e.Height = r.X, r.Y, r.Width, r.Height
	e.AssignedMonitorID = monitorID
	e.mu.Unlock()
}

// State returns a copy of the runtime fields.
func (e *ApplicationEntry) State() RuntimeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetState replaces every runtime field at once.
func (e *ApplicationEntry) SetState(s RuntimeState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// ProcessID returns the tracked pid, or 0.
func (e *ApplicationEntry) ProcessID() int {
	return e.State().ProcessID
}

// IsLive reports whether a process id is being tracked.
func (e *ApplicationEntry) IsLive() bool {
	return e.ProcessID() != 0
}

// MarkLaunching resets the error and moves the entry into Launching.
func (e *ApplicationEntry) MarkLaunching() {
	e.mu.Lock()
	e.state.Status = StatusLaunching
	e.state.LastError = ""
	e.mu.Unlock()
}

// MarkStarted records the pid of a freshly spawned process.
func (e *ApplicationEntry) MarkStarted(pid int) {
	e.mu.Lock()
	e.state.ProcessID = pid
	e.state.WindowHandle = 0
	e.mu.Unlock()
}

// MarkRunning records the discovered main window. It is ignored when no pid is
// tracked, since Running always implies a process.
func (e *ApplicationEntry) MarkRunning(h WindowHandle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.ProcessID == 0 {
		return
	}
	e.state.WindowHandle = h
	e.state.Status = StatusRunning
}

// MarkFailed moves the entry into Failed with a message.
func (e *ApplicationEntry) MarkFailed(msg string) {
	e.mu.Lock()
	e.state.Status = StatusFailed
	e.state.LastError = msg
	e.mu.Unlock()
}

// MarkNotRunning clears the process and window identifiers.
func (e *ApplicationEntry) MarkNotRunning() {
	e.mu.Lock()
	e.state.Status = StatusNotRunning
	e.state.ProcessID = 0
	e.state.WindowHandle = 0
	e.mu.Unlock()
}

// SetWindowHandle updates the live handle without touching the status.
func (e *ApplicationEntry) SetWindowHandle(h WindowHandle) {
	e.mu.Lock()
	e.state.WindowHandle = h
	e.mu.Unlock()
}

// SetObserved records the last rectangle and style read from the window.
func (e *ApplicationEntry) SetObserved(r Rect, style int64) {
	e.mu.Lock()
	e.state.LastObservedRect = r
	e.state.LastObservedStyle = style
	e.mu.Unlock()
}

// ForceUntil returns the end of the force-position window.
func (e *ApplicationEntry) ForceUntil() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.forceUntil
}

// SetForceUntil opens (or, with the zero time, closes) the force-position window.
func (e *ApplicationEntry) SetForceUntil(t time.Time) {
	e.mu.Lock()
	e.forceUntil = t
	e.mu.Unlock()
}

// NormalizeExecutablePath returns the comparison key for an executable path:
// absolute, cleaned and case-folded.
func NormalizeExecutablePath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return strings.ToLower(filepath.Clean(path))
}
