package model

import (
	"fmt"
	"time"
)

// ChangeType represents the kind of change a monitor observed.
type ChangeType string

const (
	ChangeMoved  ChangeType = "moved"
	ChangeStyled ChangeType = "styled"
	ChangeExited ChangeType = "exited"
)

// DriftEvent is one observation emitted by a window monitor.
type DriftEvent struct {
	Type    ChangeType           `json:"type"              yaml:"type"`
	TS      int64                `json:"ts"                yaml:"ts"`
	App     string               `json:"app"               yaml:"app"`
	PID     int                  `json:"pid"               yaml:"pid"`
	Changes map[string][2]string `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// DiffGeometry compares two observations of a window and returns the changed
// fields keyed by short names: "x", "y", "w", "h" and "style".
func DiffGeometry(prevRect Rect, prevStyle int64, currRect Rect, currStyle int64) map[string][2]string {
	diffs := make(map[string][2]string)
	if prevRect.X != currRect.X {
		diffs["x"] = [2]string{fmt.Sprint(prevRect.X), fmt.Sprint(currRect.X)}
	}
	if prevRect.Y != currRect.Y {
		diffs["y"] = [2]string{fmt.Sprint(prevRect.Y), fmt.Sprint(currRect.Y)}
	}
	if prevRect.Width != currRect.Width {
		diffs["w"] = [2]string{fmt.Sprint(prevRect.Width), fmt.Sprint(currRect.Width)}
	}
	if prevRect.Height != currRect.Height {
		diffs["h"] = [2]string{fmt.Sprint(prevRect.Height), fmt.Sprint(currRect.Height)}
	}
	if prevStyle != currStyle {
		diffs["style"] = [2]string{fmt.Sprintf("%#x", prevStyle), fmt.Sprintf("%#x", currStyle)}
	}
	if len(diffs) == 0 {
		return nil
	}
	return diffs
}

// NewDriftEvent builds an event for a geometry or style change. The type is
// "moved" when any geometry field changed, otherwise "styled".
func NewDriftEvent(app string, pid int, changes map[string][2]string, now time.Time) DriftEvent {
	t := ChangeStyled
	for k := range changes {
		if k != "style" {
			t = ChangeMoved
			break
		}
	}
	return DriftEvent{Type: t, TS: now.Unix(), App: app, PID: pid, Changes: changes}
}
