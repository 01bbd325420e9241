package platformtest

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/mj1618/desktop-organizer/internal/model"
)

// AppBehavior configures what happens when an executable is started.
type AppBehavior struct {
	// StartErr makes Start fail.
	StartErr error
	// NoWindow starts the process without ever showing a window.
	NoWindow bool
	// WindowAfterPolls hides the window from FindWindowByProcessID for that
	// many polls.
	WindowAfterPolls int
	// Rect is where the window first appears. Zero means 0,0 800x600.
	Rect model.Rect
	// Title defaults to the executable base name.
	Title string
}

// FakeProcess is one simulated process.
type FakeProcess struct {
	PID   int
	Path  string
	Alive bool
}

// Processes is a fake platform.ProcessManager. Started processes get a
// window in the attached Windows unless configured otherwise.
type Processes struct {
	mu        sync.Mutex
	next      int
	procs     map[int]*FakeProcess
	behaviors map[string]AppBehavior
	started   []string
	killed    []int
	windows   *Windows
}

// NewProcesses returns a process table that creates windows in w.
func NewProcesses(w *Windows) *Processes {
	p := &Processes{
		next:      1000,
		procs:     make(map[int]*FakeProcess),
		behaviors: make(map[string]AppBehavior),
		windows:   w,
	}
	if w != nil {
		w.processes = p
	}
	return p
}

// Configure sets the behavior for an executable path.
func (p *Processes) Configure(path string, b AppBehavior) {
	p.mu.Lock()
	p.behaviors[model.NormalizeExecutablePath(path)] = b
	p.mu.Unlock()
}

// Spawn registers an already running process with a visible window, as if
// it had been started outside the organizer.
func (p *Processes) Spawn(path string, r model.Rect) (int, model.WindowHandle) {
	p.mu.Lock()
	pid := p.next
	p.next++
	p.procs[pid] = &FakeProcess{PID: pid, Path: path, Alive: true}
	p.mu.Unlock()

	h := p.windows.Add(FakeWindow{PID: pid, Title: filepath.Base(path), Rect: r, Visible: true})
	return pid, h
}

// Exit simulates the process terminating on its own.
func (p *Processes) Exit(pid int) {
	p.mu.Lock()
	if proc, ok := p.procs[pid]; ok {
		proc.Alive = false
	}
	p.mu.Unlock()
	if p.windows != nil {
		p.windows.removeByPID(pid)
	}
}

// Started returns the executable paths passed to Start, in order.
func (p *Processes) Started() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.started...)
}

// Killed returns the pids passed to Kill, in order.
func (p *Processes) Killed() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.killed...)
}

func (p *Processes) Start(path string, args ...string) (int, error) {
	p.mu.Lock()
	p.started = append(p.started, path)
	b := p.behaviors[model.NormalizeExecutablePath(path)]
	if b.StartErr != nil {
		p.mu.Unlock()
		return 0, b.StartErr
	}
	pid := p.next
	p.next++
	p.procs[pid] = &FakeProcess{PID: pid, Path: path, Alive: true}
	p.mu.Unlock()

	if b.NoWindow || p.windows == nil {
		return pid, nil
	}
	r := b.Rect
	if r.IsEmpty() {
		r = model.Rect{Width: 800, Height: 600}
	}
	title := b.Title
	if title == "" {
		title = filepath.Base(path)
	}
	p.windows.Add(FakeWindow{
		PID:          pid,
		Title:        title,
		Rect:         r,
		Visible:      true,
		pendingPolls: b.WindowAfterPolls,
	})
	return pid, nil
}

func (p *Processes) IsAlive(pid int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	proc, ok := p.procs[pid]
	return ok && proc.Alive
}

func (p *Processes) Kill(pid int) error {
	p.mu.Lock()
	p.killed = append(p.killed, pid)
	proc, ok := p.procs[pid]
	if !ok || !proc.Alive {
		p.mu.Unlock()
		return fmt.Errorf("kill %d: no such process", pid)
	}
	proc.Alive = false
	p.mu.Unlock()
	if p.windows != nil {
		p.windows.removeByPID(pid)
	}
	return nil
}

func (p *Processes) ExecutablePath(pid int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	proc, ok := p.procs[pid]
	if !ok || !proc.Alive {
		return "", fmt.Errorf("process %d not found", pid)
	}
	return proc.Path, nil
}

func (p *Processes) IsRunning(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, proc := range p.procs {
		if proc.Alive && filepath.Base(proc.Path) == name {
			return true
		}
	}
	return false
}
