package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
	"go.uber.org/zap"

	"github.com/mj1618/desktop-organizer/internal/logging"
	"github.com/mj1618/desktop-organizer/internal/model"
)

// ExecutableResolver maps a pid to its executable.
type ExecutableResolver interface {
	ExecutablePath(pid int) (string, error)
}

// WindowManager implements platform.WindowManager over an X connection.
// Geometry is the frame geometry, decorations included, so what GetRect
// returns can be fed back to SetPosition unchanged.
type WindowManager struct {
	xu   *xgbutil.XUtil
	exes ExecutableResolver
	log  *logging.Logger
}

// NewWindowManager wraps an open connection.
func NewWindowManager(xu *xgbutil.XUtil, exes ExecutableResolver, log *logging.Logger) *WindowManager {
	if log == nil {
		log = logging.NewNop()
	}
	return &WindowManager{xu: xu, exes: exes, log: log.Named("x11")}
}

// clientList returns managed top-level windows, bottom to top.
func (m *WindowManager) clientList() ([]xproto.Window, error) {
	wins, err := ewmh.ClientListStackingGet(m.xu)
	if err == nil && len(wins) > 0 {
		return wins, nil
	}
	return ewmh.ClientListGet(m.xu)
}

func (m *WindowManager) clients() []xproto.Window {
	wins, err := m.clientList()
	if err != nil {
		m.log.Debug("reading client list", zap.Error(err))
	}
	return wins
}

func (m *WindowManager) describe(win xproto.Window) model.Window {
	w := model.Window{Handle: model.WindowHandle(win)}
	if pid, err := ewmh.WmPidGet(m.xu, win); err == nil {
		w.PID = int(pid)
	}
	w.Title = m.title(win)
	if cls, err := icccm.WmClassGet(m.xu, win); err == nil && cls != nil {
		w.Class = cls.Class
	}
	if r, ok := m.GetRect(w.Handle); ok {
		w.Bounds = r
	}

	types, _ := ewmh.WmWindowTypeGet(m.xu, win)
	states, _ := ewmh.WmStateGet(m.xu, win)
	w.Tool = isTool(types, states)
	w.Minimized = hasState(states, "_NET_WM_STATE_HIDDEN")
	if st, err := icccm.WmStateGet(m.xu, win); err == nil && st != nil && st.State == icccm.StateIconic {
		w.Minimized = true
	}
	// A minimized window still counts as visible, like a restored one.
	if attrs, err := xproto.GetWindowAttributes(m.xu.Conn(), win).Reply(); err == nil {
		w.Visible = attrs.MapState == xproto.MapStateViewable || w.Minimized
	}
	return w
}

func (m *WindowManager) title(win xproto.Window) string {
	if t, err := ewmh.WmNameGet(m.xu, win); err == nil && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if t, err := icccm.WmNameGet(m.xu, win); err == nil {
		return strings.TrimSpace(t)
	}
	return ""
}

func (m *WindowManager) GetRect(h model.WindowHandle) (model.Rect, bool) {
	if h == 0 {
		return model.Rect{}, false
	}
	geom, err := xwindow.New(m.xu, xproto.Window(h)).DecorGeometry()
	if err != nil {
		return model.Rect{}, false
	}
	return model.Rect{X: geom.X(), Y: geom.Y(), Width: geom.Width(), Height: geom.Height()}, true
}

func (m *WindowManager) GetStyle(h model.WindowHandle) int64 {
	if h == 0 {
		return 0
	}
	states, err := ewmh.WmStateGet(m.xu, xproto.Window(h))
	if err != nil {
		return 0
	}
	return styleFromStates(states)
}

// SetPosition restores and unmaximizes the window first; window managers
// ignore geometry requests for maximized or iconified clients.
func (m *WindowManager) SetPosition(h model.WindowHandle, r model.Rect) {
	if h == 0 || r.IsEmpty() {
		return
	}
	win := xproto.Window(h)
	log := m.log.With(zap.Stringer("window", h), zap.Stringer("rect", r))

	states, _ := ewmh.WmStateGet(m.xu, win)
	if hasState(states, "_NET_WM_STATE_HIDDEN") {
		if err := ewmh.ActiveWindowReq(m.xu, win); err != nil {
			log.Debug("restoring window", zap.Error(err))
		}
	}
	if hasState(states, "_NET_WM_STATE_MAXIMIZED_VERT") || hasState(states, "_NET_WM_STATE_MAXIMIZED_HORZ") {
		if err := ewmh.WmStateReqExtra(m.xu, win, ewmh.StateRemove,
			"_NET_WM_STATE_MAXIMIZED_VERT", "_NET_WM_STATE_MAXIMIZED_HORZ", 2); err != nil {
			log.Debug("unmaximizing window", zap.Error(err))
		}
	}
	if err := xwindow.New(m.xu, win).WMMoveResize(r.X, r.Y, r.Width, r.Height); err != nil {
		log.Debug("moving window", zap.Error(err))
	}
}

func (m *WindowManager) FindWindowByProcessID(pid int) (model.WindowHandle, bool) {
	if pid <= 0 {
		return 0, false
	}
	for _, win := range m.clients() {
		w := m.describe(win)
		if w.PID == pid && w.IsUserWindow() {
			return w.Handle, true
		}
	}
	return 0, false
}

func (m *WindowManager) FindWindowByExecutablePath(path string) (model.WindowHandle, bool) {
	want := model.NormalizeExecutablePath(path)
	if want == "" || m.exes == nil {
		return 0, false
	}
	checked := make(map[int]bool)
	for _, win := range m.clients() {
		w := m.describe(win)
		if w.PID == 0 || !w.IsUserWindow() {
			continue
		}
		match, seen := checked[w.PID]
		if !seen {
			exe, err := m.exes.ExecutablePath(w.PID)
			match = err == nil && model.NormalizeExecutablePath(exe) == want
			checked[w.PID] = match
		}
		if match {
			return w.Handle, true
		}
	}
	return 0, false
}

func (m *WindowManager) ProcessID(h model.WindowHandle) int {
	if h == 0 {
		return 0
	}
	pid, err := ewmh.WmPidGet(m.xu, xproto.Window(h))
	if err != nil {
		return 0
	}
	return int(pid)
}

// MinimizeAllUserWindows iconifies every visible, non-tool client through
// the ICCCM WM_CHANGE_STATE request.
func (m *WindowManager) MinimizeAllUserWindows() {
	n := 0
	for _, win := range m.clients() {
		w := m.describe(win)
		if !w.IsUserWindow() || w.Minimized {
			continue
		}
		if err := ewmh.ClientEvent(m.xu, win, "WM_CHANGE_STATE", icccm.StateIconic); err != nil {
			m.log.Debug("minimizing window", zap.Stringer("window", w.Handle), zap.Error(err))
			continue
		}
		n++
	}
	m.log.Debug("minimized windows", zap.Int("count", n))
}

func (m *WindowManager) ListWindows() ([]model.Window, error) {
	wins, err := m.clientList()
	if err != nil {
		return nil, fmt.Errorf("reading _NET_CLIENT_LIST: %w", err)
	}
	out := make([]model.Window, 0, len(wins))
	for _, win := range wins {
		out = append(out, m.describe(win))
	}
	return out, nil
}
