package x11

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Desktops switches EWMH virtual desktops. IDs are the zero-based desktop
// indexes as decimal strings.
type Desktops struct {
	xu *xgbutil.XUtil
}

// NewDesktops wraps an open connection.
func NewDesktops(xu *xgbutil.XUtil) *Desktops {
	return &Desktops{xu: xu}
}

func (d *Desktops) index(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("desktop id %q is not a number", id)
	}
	count, err := ewmh.NumberOfDesktopsGet(d.xu)
	if err != nil {
		return 0, fmt.Errorf("reading desktop count: %w", err)
	}
	if n < 0 || n >= int(count) {
		return 0, fmt.Errorf("desktop %d not found (have %d)", n, count)
	}
	return n, nil
}

func (d *Desktops) SwitchTo(id string) error {
	n, err := d.index(id)
	if err != nil {
		return err
	}
	return ewmh.CurrentDesktopReq(d.xu, n)
}

func (d *Desktops) Rename(id, name string) error {
	n, err := d.index(id)
	if err != nil {
		return err
	}
	names, _ := ewmh.DesktopNamesGet(d.xu)
	return ewmh.DesktopNamesSet(d.xu, renamed(names, n, name))
}

func (d *Desktops) Current() (string, error) {
	n, err := ewmh.CurrentDesktopGet(d.xu)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(int(n)), nil
}

// renamed returns names with index n set, padding with empty names.
func renamed(names []string, n int, name string) []string {
	out := make([]string, max(len(names), n+1))
	copy(out, names)
	out[n] = name
	return out
}
