package model

import "fmt"

// WindowHandle is an opaque platform window identifier. Zero means "no window".
type WindowHandle uint64

func (h WindowHandle) String() string {
	return fmt.Sprintf("0x%x", uint64(h))
}

// Window represents a top-level window reported by the window manager.
type Window struct {
	Handle    WindowHandle `yaml:"handle"              json:"handle"`
	PID       int          `yaml:"pid"                 json:"pid"`
	Title     string       `yaml:"title"               json:"title"`
	Class     string       `yaml:"class,omitempty"     json:"class,omitempty"`
	Bounds    Rect         `yaml:"bounds"              json:"bounds"`
	Visible   bool         `yaml:"visible"             json:"visible"`
	Tool      bool         `yaml:"tool,omitempty"      json:"tool,omitempty"`
	Minimized bool         `yaml:"minimized,omitempty" json:"minimized,omitempty"`
}

// IsUserWindow reports whether the window is a regular, visible application
// window: the kind a profile can own.
func (w Window) IsUserWindow() bool {
	return w.Visible && !w.Tool
}
