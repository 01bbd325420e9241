package x11

// Style bits reported by GetStyle. They mirror _NET_WM_STATE atoms so that a
// maximize or fullscreen toggle registers as drift.
const (
	StyleMaximizedVert int64 = 1 << iota
	StyleMaximizedHorz
	StyleFullscreen
	StyleHidden
	StyleAbove
	StyleSticky
	StyleShaded
)

var styleAtoms = map[string]int64{
	"_NET_WM_STATE_MAXIMIZED_VERT": StyleMaximizedVert,
	"_NET_WM_STATE_MAXIMIZED_HORZ": StyleMaximizedHorz,
	"_NET_WM_STATE_FULLSCREEN":     StyleFullscreen,
	"_NET_WM_STATE_HIDDEN":         StyleHidden,
	"_NET_WM_STATE_ABOVE":          StyleAbove,
	"_NET_WM_STATE_STICKY":         StyleSticky,
	"_NET_WM_STATE_SHADED":         StyleShaded,
}

// styleFromStates folds _NET_WM_STATE atom names into a bitmask.
func styleFromStates(states []string) int64 {
	var s int64
	for _, st := range states {
		s |= styleAtoms[st]
	}
	return s
}

// Window types that never belong to a profile.
var toolTypes = map[string]bool{
	"_NET_WM_WINDOW_TYPE_DESKTOP":       true,
	"_NET_WM_WINDOW_TYPE_DOCK":          true,
	"_NET_WM_WINDOW_TYPE_TOOLBAR":       true,
	"_NET_WM_WINDOW_TYPE_MENU":          true,
	"_NET_WM_WINDOW_TYPE_UTILITY":       true,
	"_NET_WM_WINDOW_TYPE_SPLASH":        true,
	"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU": true,
	"_NET_WM_WINDOW_TYPE_POPUP_MENU":    true,
	"_NET_WM_WINDOW_TYPE_TOOLTIP":       true,
	"_NET_WM_WINDOW_TYPE_NOTIFICATION":  true,
}

// isTool reports whether a window is a tool-like window: a panel, menu,
// desktop or anything that asks to stay off the taskbar.
func isTool(types, states []string) bool {
	for _, t := range types {
		if toolTypes[t] {
			return true
		}
	}
	for _, s := range states {
		if s == "_NET_WM_STATE_SKIP_TASKBAR" {
			return true
		}
	}
	return false
}

func hasState(states []string, want string) bool {
	for _, s := range states {
		if s == want {
			return true
		}
	}
	return false
}
