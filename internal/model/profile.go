package model

import (
	"fmt"
	"sync"
)

// WorkspaceProfile is a named, ordered set of applications plus optional
// desktop settings. Name is the storage key.
type WorkspaceProfile struct {
	Name                 string              `yaml:"name"                             json:"name"`
	Apps                 []*ApplicationEntry `yaml:"apps"                             json:"apps"`
	WallpaperPath        string              `yaml:"wallpaper_path,omitempty"         json:"wallpaper_path,omitempty"`
	Volume               *int                `yaml:"volume,omitempty"                 json:"volume,omitempty"`
	VirtualDesktopID     string              `yaml:"virtual_desktop_id,omitempty"     json:"virtual_desktop_id,omitempty"`
	RenameVirtualDesktop bool                `yaml:"rename_virtual_desktop,omitempty" json:"rename_virtual_desktop,omitempty"`
	DisplayOrder         int                 `yaml:"display_order"                    json:"display_order"`

	// CreatedFromSnapshot is set when the profile was just captured from live
	// windows. It is not persisted and is cleared after the first apply.
	CreatedFromSnapshot bool `yaml:"-" json:"-"`

	mu            sync.Mutex
	dirty         bool
	onDirtyChange func(dirty bool)
}

// IsDirty reports whether the profile has unsaved changes.
func (p *WorkspaceProfile) IsDirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

// OnDirtyChange registers a callback fired whenever the dirty flag flips.
func (p *WorkspaceProfile) OnDirtyChange(fn func(dirty bool)) {
	p.mu.Lock()
	p.onDirtyChange = fn
	p.mu.Unlock()
}

// MarkDirty flags unsaved changes.
func (p *WorkspaceProfile) MarkDirty() { p.setDirty(true) }

// ClearDirty is called after a successful save.
func (p *WorkspaceProfile) ClearDirty() { p.setDirty(false) }

func (p *WorkspaceProfile) setDirty(v bool) {
	p.mu.Lock()
	if p.dirty == v {
		p.mu.Unlock()
		return
	}
	p.dirty = v
	fn := p.onDirtyChange
	p.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}

// AddApp appends an entry.
func (p *WorkspaceProfile) AddApp(e *ApplicationEntry) {
	p.Apps = append(p.Apps, e)
	p.MarkDirty()
}

// RemoveApp removes the entry at index i.
func (p *WorkspaceProfile) RemoveApp(i int) error {
	if i < 0 || i >= len(p.Apps) {
		return fmt.Errorf("app index %d out of range (have %d)", i, len(p.Apps))
	}
	p.Apps = append(p.Apps[:i], p.Apps[i+1:]...)
	p.MarkDirty()
	return nil
}

// MoveApp moves the entry at from to position to, shifting the others.
func (p *WorkspaceProfile) MoveApp(from, to int) error {
	n := len(p.Apps)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move %d -> %d out of range (have %d)", from, to, n)
	}
	if from == to {
		return nil
	}
	e := p.Apps[from]
	p.Apps = append(p.Apps[:from], p.Apps[from+1:]...)
	p.Apps = append(p.Apps[:to], append([]*ApplicationEntry{e}, p.Apps[to:]...)...)
	p.MarkDirty()
	return nil
}

// FindApp returns the first entry whose executable matches path.
func (p *WorkspaceProfile) FindApp(path string) *ApplicationEntry {
	key := NormalizeExecutablePath(path)
	for _, e := range p.Apps {
		if NormalizeExecutablePath(e.ExecutablePath) == key {
			return e
		}
	}
	return nil
}
