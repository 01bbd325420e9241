package applier

import (
	"time"

	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/stabilize"
)

// AppStatus is the externally visible state of one entry.
type AppStatus struct {
	Name       string            `yaml:"name"                 json:"name"`
	Path       string            `yaml:"path"                 json:"path"`
	Status     model.Status      `yaml:"status"               json:"status"`
	PID        int               `yaml:"pid,omitempty"        json:"pid,omitempty"`
	Window     string            `yaml:"window,omitempty"     json:"window,omitempty"`
	Rect       model.Rect        `yaml:"rect"                 json:"rect"`
	Monitor    string            `yaml:"monitor,omitempty"    json:"monitor,omitempty"`
	Error      string            `yaml:"error,omitempty"      json:"error,omitempty"`
	Monitored  bool              `yaml:"monitored,omitempty"  json:"monitored,omitempty"`
	Killed     bool              `yaml:"killed,omitempty"     json:"killed,omitempty"`
	Recentered bool              `yaml:"recentered,omitempty" json:"recentered,omitempty"`
	Launched   bool              `yaml:"launched,omitempty"   json:"launched,omitempty"`
	Stabilize  *stabilize.Result `yaml:"stabilize,omitempty"  json:"stabilize,omitempty"`
}

// Report summarizes one ApplyProfile run.
type Report struct {
	RunID            string        `yaml:"run_id"                      json:"run_id"`
	Profile          string        `yaml:"profile"                     json:"profile"`
	StartedAt        time.Time     `yaml:"started_at"                  json:"started_at"`
	Duration         time.Duration `yaml:"duration"                    json:"duration"`
	Minimized        bool          `yaml:"minimized"                   json:"minimized"`
	DisplayError     string        `yaml:"display_error,omitempty"     json:"display_error,omitempty"`
	WallpaperApplied bool          `yaml:"wallpaper_applied,omitempty" json:"wallpaper_applied,omitempty"`
	WallpaperError   string        `yaml:"wallpaper_error,omitempty"   json:"wallpaper_error,omitempty"`
	Apps             []AppStatus   `yaml:"apps"                        json:"apps"`
}

// Running counts apps that ended in Running.
func (r *Report) Running() int {
	n := 0
	for _, a := range r.Apps {
		if a.Status == model.StatusRunning {
			n++
		}
	}
	return n
}

// Failed counts apps that ended in Failed.
func (r *Report) Failed() int {
	n := 0
	for _, a := range r.Apps {
		if a.Status == model.StatusFailed {
			n++
		}
	}
	return n
}

func statusOf(e *model.ApplicationEntry) AppStatus {
	st := e.State()
	s := AppStatus{
		Name:    e.Name(),
		Path:    e.ExecutablePath,
		Status:  st.Status,
		PID:     st.ProcessID,
		Rect:    e.SavedRect(),
		Monitor: e.AssignedMonitorID,
		Error:   st.LastError,
	}
	if st.WindowHandle != 0 {
		s.Window = st.WindowHandle.String()
	}
	return s
}
