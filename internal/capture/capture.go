// Package capture builds a workspace profile from the windows currently on
// screen.
package capture

import (
	"path/filepath"
	"strings"

	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/platform"
)

// MinSize is the smallest width and height a window needs to be captured.
// Smaller windows are splash screens, tray popups and the like.
const MinSize = 100

// Options narrow what gets captured.
type Options struct {
	// Include keeps only windows whose executable base name or class contains
	// one of these substrings (case-insensitive). Empty keeps everything.
	Include []string
	// Exclude drops matching windows after Include.
	Exclude []string
}

// Capture snapshots the live windows into a new profile named name. Each
// executable appears once, at the geometry of its first qualifying window.
// Entries start Running with their pid and window, and the profile is marked
// as created from a snapshot.
func Capture(name string, windows platform.WindowManager, processes platform.ProcessManager, displays platform.DisplayProvider, opts Options) (*model.WorkspaceProfile, error) {
	list, err := windows.ListWindows()
	if err != nil {
		return nil, err
	}
	var ds []model.Display
	if displays != nil {
		// Monitor ids are best effort; a capture without them is still useful.
		ds, _ = displays.GetActiveDisplays()
	}

	p := &model.WorkspaceProfile{Name: name, CreatedFromSnapshot: true}
	seen := make(map[string]bool)
	for _, w := range list {
		if !Qualifies(w) {
			continue
		}
		exe, err := processes.ExecutablePath(w.PID)
		if err != nil || exe == "" {
			continue
		}
		key := model.NormalizeExecutablePath(exe)
		if seen[key] || !opts.matches(exe, w.Class) {
			continue
		}
		seen[key] = true

		e := model.NewEntry(exe, displayName(exe, w), w.Bounds)
		if d, ok := model.DisplayAt(ds, w.Bounds.X, w.Bounds.Y); ok {
			e.AssignedMonitorID = d.DeviceID
		}
		e.MarkStarted(w.PID)
		e.MarkRunning(w.Handle)
		e.SetObserved(w.Bounds, 0)
		p.Apps = append(p.Apps, e)
	}
	p.MarkDirty()
	return p, nil
}

// Qualifies reports whether a window is worth capturing: visible, not a tool
// window, not minimized and larger than MinSize in both directions.
func Qualifies(w model.Window) bool {
	return w.IsUserWindow() && !w.Minimized && w.PID != 0 &&
		w.Bounds.Width > MinSize && w.Bounds.Height > MinSize
}

func displayName(exe string, w model.Window) string {
	if w.Class != "" {
		return w.Class
	}
	return filepath.Base(exe)
}

func (o Options) matches(exe, class string) bool {
	base := strings.ToLower(filepath.Base(exe))
	class = strings.ToLower(class)
	hit := func(pats []string) bool {
		for _, p := range pats {
			p = strings.ToLower(p)
			if strings.Contains(base, p) || (class != "" && strings.Contains(class, p)) {
				return true
			}
		}
		return false
	}
	if len(o.Include) > 0 && !hit(o.Include) {
		return false
	}
	return !hit(o.Exclude)
}
