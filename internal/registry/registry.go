// Package registry tracks the live runtime state of every launched
// executable, independent of which profile launched it.
//
// Two profile objects that reference the same executable share one truth
// here: a profile reloaded from disk, or a second profile switched to later,
// reattaches to the running process through Refresh instead of launching a
// duplicate. Callers only ever receive copies.
package registry

import (
	"sort"
	"sync"

	"github.com/mj1618/desktop-organizer/internal/metrics"
	"github.com/mj1618/desktop-organizer/internal/model"
)

// LivenessChecker confirms a pid still refers to a running process.
type LivenessChecker interface {
	IsAlive(pid int) bool
}

// WindowFinder resolves the main window of a process.
type WindowFinder interface {
	FindWindowByProcessID(pid int) (model.WindowHandle, bool)
}

// Entry is the registry's copy of an executable's last known state.
type Entry struct {
	Key   string             `yaml:"key"   json:"key"`
	Path  string             `yaml:"path"  json:"path"`
	State model.RuntimeState `yaml:"state" json:"state"`
}

// Registry is a concurrency-safe map from normalized executable path to
// runtime state. One lock covers every read and write.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Entry
	alive   LivenessChecker
	windows WindowFinder
}

// New creates an empty registry. windows may be nil, in which case Refresh
// keeps whatever handle an entry already has when it reattaches by pid.
func New(alive LivenessChecker, windows WindowFinder) *Registry {
	return &Registry{
		entries: make(map[string]Entry),
		alive:   alive,
		windows: windows,
	}
}

// Key returns the registry key for an executable path.
func Key(path string) string {
	return model.NormalizeExecutablePath(path)
}

// Update mirrors an entry's runtime state. NotRunning entries and entries
// without a pid are removed, so the map never holds stale rows.
func (r *Registry) Update(e *model.ApplicationEntry) {
	if e == nil || e.ExecutablePath == "" {
		return
	}
	key := Key(e.ExecutablePath)
	st := e.State()

	r.mu.Lock()
	defer r.mu.Unlock()
	if st.Status == model.StatusNotRunning || st.ProcessID == 0 {
		delete(r.entries, key)
	} else {
		r.entries[key] = Entry{Key: key, Path: e.ExecutablePath, State: st}
	}
	metrics.RegistryEntries.Set(float64(len(r.entries)))
}

// Refresh reconciles each entry against the registry and the process table.
//
// A registry hit whose pid is alive is copied into the entry. A hit whose pid
// is dead is dropped. Without a usable hit the entry's own pid is checked;
// if that is alive the entry becomes Running and is published. Otherwise the
// entry becomes NotRunning.
func (r *Registry) Refresh(entries []*model.ApplicationEntry) {
	for _, e := range entries {
		if e == nil {
			continue
		}
		if r.reattach(e) {
			continue
		}

		pid := e.ProcessID()
		if pid == 0 || !r.alive.IsAlive(pid) {
			e.MarkNotRunning()
			continue
		}

		h := e.State().WindowHandle
		if r.windows != nil {
			if found, ok := r.windows.FindWindowByProcessID(pid); ok {
				h = found
			}
		}
		e.MarkRunning(h)
		r.Update(e)
	}
}

func (r *Registry) reattach(e *model.ApplicationEntry) bool {
	if e.ExecutablePath == "" {
		return false
	}
	key := Key(e.ExecutablePath)

	r.mu.Lock()
	defer r.mu.Unlock()
	hit, ok := r.entries[key]
	if !ok {
		return false
	}
	if !r.alive.IsAlive(hit.State.ProcessID) {
		delete(r.entries, key)
		metrics.RegistryEntries.Set(float64(len(r.entries)))
		return false
	}
	e.SetState(hit.State)
	return true
}

// Lookup returns a copy of the state recorded for path.
func (r *Registry) Lookup(path string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[Key(path)]
	return e, ok
}

// Remove forgets path.
func (r *Registry) Remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, Key(path))
	metrics.RegistryEntries.Set(float64(len(r.entries)))
}

// Snapshot returns copies of all entries sorted by key.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of tracked executables.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
