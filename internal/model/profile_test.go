package model

import "testing"

func TestProfile_DirtyNotification(t *testing.T) {
	p := &WorkspaceProfile{Name: "work"}
	var events []bool
	p.OnDirtyChange(func(d bool) { events = append(events, d) })

	p.AddApp(NewEntry("/bin/a", "a", Rect{}))
	p.AddApp(NewEntry("/bin/b", "b", Rect{}))
	p.ClearDirty()

	if len(events) != 2 || !events[0] || events[1] {
		t.Errorf("expected [true false], got %v", events)
	}
	if p.IsDirty() {
		t.Error("profile should be clean after ClearDirty")
	}
}

func TestProfile_MoveApp(t *testing.T) {
	p := &WorkspaceProfile{Name: "work"}
	for _, n := range []string{"a", "b", "c", "d"} {
		p.AddApp(NewEntry("/bin/"+n, n, Rect{}))
	}

	if err := p.MoveApp(0, 2); err != nil {
		t.Fatal(err)
	}
	got := ""
	for _, e := range p.Apps {
		got += e.DisplayName
	}
	if got != "bcad" {
		t.Errorf("got order %q, want bcad", got)
	}

	if err := p.MoveApp(0, 9); err == nil {
		t.Error("out of range move should fail")
	}
}

func TestProfile_RemoveApp(t *testing.T) {
	p := &WorkspaceProfile{Name: "work"}
	p.AddApp(NewEntry("/bin/a", "a", Rect{}))
	p.AddApp(NewEntry("/bin/b", "b", Rect{}))
	p.ClearDirty()

	if err := p.RemoveApp(0); err != nil {
		t.Fatal(err)
	}
	if len(p.Apps) != 1 || p.Apps[0].DisplayName != "b" {
		t.Errorf("unexpected apps after remove: %d", len(p.Apps))
	}
	if !p.IsDirty() {
		t.Error("remove should mark the profile dirty")
	}
	if err := p.RemoveApp(3); err == nil {
		t.Error("out of range remove should fail")
	}
}

func TestProfile_FindApp(t *testing.T) {
	p := &WorkspaceProfile{Name: "work"}
	p.AddApp(NewEntry("/usr/bin/Code", "Code", Rect{}))
	if p.FindApp("/usr/bin/code") == nil {
		t.Error("lookup should be case-insensitive")
	}
	if p.FindApp("/usr/bin/vim") != nil {
		t.Error("unexpected match")
	}
}
