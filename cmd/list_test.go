package cmd

import (
	"testing"

	"github.com/mj1618/desktop-organizer/internal/model"
)

func TestListCommand_Flags(t *testing.T) {
	flags := listCmd.Flags()

	tests := []struct {
		name     string
		flagType string
	}{
		{"displays", "bool"},
		{"all", "bool"},
		{"pid", "int"},
		{"pretty", "bool"},
	}

	for _, tt := range tests {
		f := flags.Lookup(tt.name)
		if f == nil {
			t.Errorf("expected flag %q not found", tt.name)
			continue
		}
		if f.Value.Type() != tt.flagType {
			t.Errorf("flag %q: expected type %q, got %q", tt.name, tt.flagType, f.Value.Type())
		}
	}
}

func TestListCommand_IsRegistered(t *testing.T) {
	for _, c := range rootCmd.Commands() {
		if c.Name() == "list" {
			return
		}
	}
	t.Error("list command not registered on root")
}

func TestFilterWindows(t *testing.T) {
	windows := []model.Window{
		{Handle: 1, PID: 10, Visible: true},
		{Handle: 2, PID: 10, Visible: false},
		{Handle: 3, PID: 20, Visible: true, Tool: true},
		{Handle: 4, PID: 20, Visible: true},
	}

	if got := filterWindows(windows, false, 0); len(got) != 2 {
		t.Errorf("user windows: expected 2, got %d", len(got))
	}
	if got := filterWindows(windows, true, 0); len(got) != 4 {
		t.Errorf("all windows: expected 4, got %d", len(got))
	}
	got := filterWindows(windows, false, 20)
	if len(got) != 1 || got[0].Handle != 4 {
		t.Errorf("pid filter: expected window 4, got %+v", got)
	}
	if got := filterWindows(nil, false, 0); got == nil {
		t.Error("expected an empty, non-nil slice")
	}
}
