// Package platformtest provides in-memory platform backends for tests.
//
// A Desktop wires fake processes, windows and displays together: starting a
// process through Processes creates a window in Windows, killing it removes
// the window, and SetPosition moves the window subject to an optional hook
// that can simulate applications fighting back.
package platformtest

import (
	"sync"

	"github.com/mj1618/desktop-organizer/internal/model"
)

// FakeWindow is the state of one simulated top-level window.
type FakeWindow struct {
	Handle    model.WindowHandle
	PID       int
	Title     string
	Class     string
	Rect      model.Rect
	Style     int64
	Visible   bool
	Tool      bool
	Minimized bool

	// pendingPolls hides the window from FindWindowByProcessID until it has
	// been polled this many times.
	pendingPolls int
}

// SetPositionHook decides where a window ends up after a SetPosition call.
// call counts SetPosition calls for that handle, starting at 1.
type SetPositionHook func(h model.WindowHandle, requested, current model.Rect, call int) model.Rect

// Windows is a fake platform.WindowManager.
type Windows struct {
	mu        sync.Mutex
	windows   map[model.WindowHandle]*FakeWindow
	order     []model.WindowHandle
	next      model.WindowHandle
	processes *Processes

	hook             SetPositionHook
	getRectCalls     int
	setPositionCalls map[model.WindowHandle]int
	minimizeCalls    int
}

// NewWindows returns an empty window set.
func NewWindows() *Windows {
	return &Windows{
		windows:          make(map[model.WindowHandle]*FakeWindow),
		next:             0x1000,
		setPositionCalls: make(map[model.WindowHandle]int),
	}
}

// SetHook installs a SetPosition behavior. nil restores "move exactly".
func (w *Windows) SetHook(h SetPositionHook) {
	w.mu.Lock()
	w.hook = h
	w.mu.Unlock()
}

// Add registers a window and returns its handle. A zero Handle is assigned.
func (w *Windows) Add(win FakeWindow) model.WindowHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	if win.Handle == 0 {
		win.Handle = w.next
		w.next++
	}
	cp := win
	w.windows[cp.Handle] = &cp
	w.order = append(w.order, cp.Handle)
	return cp.Handle
}

// Remove deletes a window.
func (w *Windows) Remove(h model.WindowHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removeLocked(h)
}

func (w *Windows) removeLocked(h model.WindowHandle) {
	delete(w.windows, h)
	for i, o := range w.order {
		if o == h {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

func (w *Windows) removeByPID(pid int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range append([]model.WindowHandle(nil), w.order...) {
		if w.windows[h].PID == pid {
			w.removeLocked(h)
		}
	}
}

// Window returns a copy of a window's state.
func (w *Windows) Window(h model.WindowHandle) (FakeWindow, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	win, ok := w.windows[h]
	if !ok {
		return FakeWindow{}, false
	}
	return *win, true
}

// SetRect moves a window as if the user dragged it.
func (w *Windows) SetRect(h model.WindowHandle, r model.Rect) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if win, ok := w.windows[h]; ok {
		win.Rect = r
	}
}

// SetStyle changes a window's style bits.
func (w *Windows) SetStyle(h model.WindowHandle, style int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if win, ok := w.windows[h]; ok {
		win.Style = style
	}
}

// GetRectCalls returns how many times GetRect was called.
func (w *Windows) GetRectCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.getRectCalls
}

// SetPositionCalls returns how many times SetPosition targeted h.
func (w *Windows) SetPositionCalls(h model.WindowHandle) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setPositionCalls[h]
}

// TotalSetPositionCalls sums SetPosition calls over all handles.
func (w *Windows) TotalSetPositionCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, c := range w.setPositionCalls {
		n += c
	}
	return n
}

// MinimizeCalls returns how many times MinimizeAllUserWindows ran.
func (w *Windows) MinimizeCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimizeCalls
}

func (w *Windows) GetRect(h model.WindowHandle) (model.Rect, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.getRectCalls++
	win, ok := w.windows[h]
	if !ok {
		return model.Rect{}, false
	}
	return win.Rect, true
}

func (w *Windows) GetStyle(h model.WindowHandle) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if win, ok := w.windows[h]; ok {
		return win.Style
	}
	return 0
}

func (w *Windows) SetPosition(h model.WindowHandle, r model.Rect) {
	w.mu.Lock()
	defer w.mu.Unlock()
	win, ok := w.windows[h]
	if !ok {
		return
	}
	w.setPositionCalls[h]++
	if w.hook != nil {
		win.Rect = w.hook(h, r, win.Rect, w.setPositionCalls[h])
		return
	}
	win.Rect = r
}

func (w *Windows) FindWindowByProcessID(pid int) (model.WindowHandle, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range w.order {
		win := w.windows[h]
		if win.PID != pid || !win.Visible || win.Tool {
			continue
		}
		if win.pendingPolls > 0 {
			win.pendingPolls--
			continue
		}
		return h, true
	}
	return 0, false
}

func (w *Windows) FindWindowByExecutablePath(path string) (model.WindowHandle, bool) {
	if w.processes == nil {
		return 0, false
	}
	key := model.NormalizeExecutablePath(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range w.order {
		win := w.windows[h]
		if !win.Visible || win.Tool || win.pendingPolls > 0 {
			continue
		}
		exe, err := w.processes.ExecutablePath(win.PID)
		if err == nil && model.NormalizeExecutablePath(exe) == key {
			return h, true
		}
	}
	return 0, false
}

func (w *Windows) ProcessID(h model.WindowHandle) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if win, ok := w.windows[h]; ok {
		return win.PID
	}
	return 0
}

func (w *Windows) MinimizeAllUserWindows() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.minimizeCalls++
	for _, win := range w.windows {
		if win.Visible && !win.Tool {
			win.Minimized = true
		}
	}
}

func (w *Windows) ListWindows() ([]model.Window, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.Window, 0, len(w.order))
	for _, h := range w.order {
		win := w.windows[h]
		out = append(out, model.Window{
			Handle:    h,
			PID:       win.PID,
			Title:     win.Title,
			Class:     win.Class,
			Bounds:    win.Rect,
			Visible:   win.Visible,
			Tool:      win.Tool,
			Minimized: win.Minimized,
		})
	}
	return out, nil
}
