package platformtest

import (
	"fmt"
	"sync"

	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/platform"
)

// Desktop bundles wired fakes for every platform backend.
type Desktop struct {
	Windows   *Windows
	Processes *Processes
	Displays  *Displays
	Wallpaper *Wallpaper
	Volume    *Volume
	Desktops  *Desktops
}

// NewDesktop returns a desktop with a single 1920x1080 primary display.
func NewDesktop() *Desktop {
	w := NewWindows()
	return &Desktop{
		Windows:   w,
		Processes: NewProcesses(w),
		Displays: NewDisplays(model.Display{
			Bounds:    model.Rect{Width: 1920, Height: 1080},
			DeviceID:  "DP-1",
			IsPrimary: true,
		}),
		Wallpaper: &Wallpaper{},
		Volume:    &Volume{level: 50},
		Desktops:  NewDesktops("1", "2", "3", "4"),
	}
}

// Provider exposes the fakes as a platform.Provider.
func (d *Desktop) Provider() *platform.Provider {
	return &platform.Provider{
		Windows:   d.Windows,
		Processes: d.Processes,
		Displays:  d.Displays,
		Wallpaper: d.Wallpaper,
		Volume:    d.Volume,
		Desktops:  d.Desktops,
	}
}

// Displays is a fake platform.DisplayProvider.
type Displays struct {
	mu       sync.Mutex
	displays []model.Display
	err      error
}

func NewDisplays(ds ...model.Display) *Displays {
	return &Displays{displays: ds}
}

// Set replaces the topology.
func (d *Displays) Set(ds ...model.Display) {
	d.mu.Lock()
	d.displays = ds
	d.mu.Unlock()
}

// Fail makes GetActiveDisplays return err.
func (d *Displays) Fail(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

func (d *Displays) GetActiveDisplays() ([]model.Display, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return append([]model.Display(nil), d.displays...), nil
}

// Wallpaper records wallpaper changes.
type Wallpaper struct {
	mu  sync.Mutex
	set []string
	Err error
}

func (w *Wallpaper) SetWallpaper(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return w.Err
	}
	w.set = append(w.set, path)
	return nil
}

// Calls returns every path passed to SetWallpaper.
func (w *Wallpaper) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.set...)
}

// Volume is a fake platform.VolumeController.
type Volume struct {
	mu    sync.Mutex
	level int
	calls int
}

func (v *Volume) SetVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("volume %d out of range 0-100", percent)
	}
	v.mu.Lock()
	v.level = percent
	v.calls++
	v.mu.Unlock()
	return nil
}

func (v *Volume) Volume() (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.level, nil
}

// Calls returns how many times SetVolume succeeded.
func (v *Volume) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

// Desktops is a fake platform.DesktopSwitcher over a fixed set of ids.
type Desktops struct {
	mu      sync.Mutex
	names   map[string]string
	current string
}

// NewDesktops creates desktops with the given ids; the first is current.
func NewDesktops(ids ...string) *Desktops {
	d := &Desktops{names: make(map[string]string)}
	for _, id := range ids {
		d.names[id] = ""
	}
	if len(ids) > 0 {
		d.current = ids[0]
	}
	return d
}

func (d *Desktops) SwitchTo(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.names[id]; !ok {
		return fmt.Errorf("desktop %q not found", id)
	}
	d.current = id
	return nil
}

func (d *Desktops) Rename(id, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.names[id]; !ok {
		return fmt.Errorf("desktop %q not found", id)
	}
	d.names[id] = name
	return nil
}

func (d *Desktops) Current() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, nil
}

// Name returns the name assigned to a desktop.
func (d *Desktops) Name(id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.names[id]
}
