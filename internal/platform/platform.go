package platform

import "github.com/mj1618/desktop-organizer/internal/model"

// WindowManager is the stateless geometry surface over the platform window
// manager. Query methods fail soft: an invalid handle yields ok=false or a
// zero value instead of an error, because every caller polls and retries.
type WindowManager interface {
	// GetRect returns the outer rectangle of a window.
	GetRect(h model.WindowHandle) (model.Rect, bool)

	// GetStyle returns a platform style bitmask, or 0 on failure.
	GetStyle(h model.WindowHandle) int64

	// SetPosition moves and resizes a window. Failures are logged by the
	// implementation and otherwise ignored.
	SetPosition(h model.WindowHandle, r model.Rect)

	// FindWindowByProcessID returns the first visible, non-tool top-level
	// window owned by pid. Enumeration order is platform-defined, so with
	// several candidates the choice is not stable.
	FindWindowByProcessID(pid int) (model.WindowHandle, bool)

	// FindWindowByExecutablePath is FindWindowByProcessID keyed by the
	// executable of the owning process.
	FindWindowByExecutablePath(path string) (model.WindowHandle, bool)

	// ProcessID returns the pid owning a window, or 0.
	ProcessID(h model.WindowHandle) int

	// MinimizeAllUserWindows minimizes every visible top-level window except
	// the desktop and tool windows.
	MinimizeAllUserWindows()

	// ListWindows returns all top-level windows.
	ListWindows() ([]model.Window, error)
}

// ProcessManager spawns, inspects and terminates processes.
type ProcessManager interface {
	// Start spawns path with args and returns its pid.
	Start(path string, args ...string) (int, error)

	// IsAlive reports whether pid refers to a running process.
	IsAlive(pid int) bool

	// Kill terminates pid and its process group when it has one.
	Kill(pid int) error

	// ExecutablePath resolves the executable backing pid.
	ExecutablePath(pid int) (string, error)

	// IsRunning reports whether any process with the given command name exists.
	IsRunning(name string) bool
}

// DisplayProvider reports the current monitor topology.
type DisplayProvider interface {
	GetActiveDisplays() ([]model.Display, error)
}

// WallpaperSetter changes the desktop background.
type WallpaperSetter interface {
	SetWallpaper(path string) error
}

// VolumeController sets the system output volume.
type VolumeController interface {
	SetVolume(percent int) error
	Volume() (int, error)
}

// DesktopSwitcher drives virtual desktops. IDs are platform strings.
type DesktopSwitcher interface {
	SwitchTo(id string) error
	Rename(id, name string) error
	Current() (string, error)
}
