package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect is a screen rectangle in virtual-screen coordinates.
type Rect struct {
	X      int `yaml:"x"      json:"x"`
	Y      int `yaml:"y"      json:"y"`
	Width  int `yaml:"width"  json:"width"`
	Height int `yaml:"height" json:"height"`
}

// IsEmpty reports whether the rectangle has no usable area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the point (x, y) lies inside r.
// The right and bottom edges are exclusive.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Within reports whether every axis of r is no more than tol pixels away from other.
func (r Rect) Within(other Rect, tol int) bool {
	return absInt(r.X-other.X) <= tol &&
		absInt(r.Y-other.Y) <= tol &&
		absInt(r.Width-other.Width) <= tol &&
		absInt(r.Height-other.Height) <= tol
}

func (r Rect) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}

// ParseRect parses a "x,y,w,h" string into a Rect.
func ParseRect(s string) (Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("invalid rect %q: expected x,y,w,h", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Rect{}, fmt.Errorf("invalid rect %q: %w", s, err)
		}
		vals[i] = v
	}
	return Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Display is one active monitor.
type Display struct {
	Bounds    Rect   `yaml:"bounds"            json:"bounds"`
	DeviceID  string `yaml:"device_id"         json:"device_id"`
	IsPrimary bool   `yaml:"primary,omitempty" json:"primary,omitempty"`
}

// PrimaryDisplay returns the display flagged primary, or the first display
// when none is flagged. ok is false for an empty list.
func PrimaryDisplay(displays []Display) (Display, bool) {
	if len(displays) == 0 {
		return Display{}, false
	}
	for _, d := range displays {
		if d.IsPrimary {
			return d, true
		}
	}
	return displays[0], true
}

// DisplayAt returns the first display whose bounds contain (x, y).
func DisplayAt(displays []Display, x, y int) (Display, bool) {
	for _, d := range displays {
		if d.Bounds.Contains(x, y) {
			return d, true
		}
	}
	return Display{}, false
}

// CenterOn places a width x height window in the middle of bounds. When the
// window does not fit, it is pinned offset pixels from the top-left corner
// instead. The size is never changed.
func CenterOn(bounds Rect, width, height, offset int) Rect {
	if width > bounds.Width || height > bounds.Height {
		return Rect{X: bounds.X + offset, Y: bounds.Y + offset, Width: width, Height: height}
	}
	return Rect{
		X:      bounds.X + (bounds.Width-width)/2,
		Y:      bounds.Y + (bounds.Height-height)/2,
		Width:  width,
		Height: height,
	}
}
