package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mj1618/desktop-organizer/internal/applier"
	"github.com/mj1618/desktop-organizer/internal/capture"
	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/output"
)

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("list_profiles",
			mcp.WithDescription("List stored workspace profiles in display order"),
		),
		s.handleListProfiles,
	)

	s.mcp.AddTool(
		mcp.NewTool("apply_profile",
			mcp.WithDescription("Apply a workspace profile: launch its apps, force their windows into place and keep tracking them"),
			mcp.WithString("name", mcp.Description("Profile name"), mcp.Required()),
		),
		s.handleApplyProfile,
	)

	s.mcp.AddTool(
		mcp.NewTool("profile_status",
			mcp.WithDescription("Report the runtime state of every app in a profile"),
			mcp.WithString("name", mcp.Description("Profile name"), mcp.Required()),
		),
		s.handleProfileStatus,
	)

	s.mcp.AddTool(
		mcp.NewTool("capture_profile",
			mcp.WithDescription("Create a profile from the windows currently on screen"),
			mcp.WithString("name", mcp.Description("Name for the new profile"), mcp.Required()),
			mcp.WithBoolean("save", mcp.Description("Write the profile to disk (default: true)")),
			mcp.WithArray("include", mcp.Description("Only capture executables or classes containing one of these")),
			mcp.WithArray("exclude", mcp.Description("Skip executables or classes containing one of these")),
		),
		s.handleCaptureProfile,
	)

	s.mcp.AddTool(
		mcp.NewTool("save_profile",
			mcp.WithDescription("Persist the tracked geometry of an applied profile"),
			mcp.WithString("name", mcp.Description("Profile name"), mcp.Required()),
		),
		s.handleSaveProfile,
	)

	s.mcp.AddTool(
		mcp.NewTool("list_windows",
			mcp.WithDescription("List top-level windows"),
			mcp.WithBoolean("all", mcp.Description("Include hidden and tool windows")),
			mcp.WithNumber("pid", mcp.Description("Filter by process ID")),
		),
		s.handleListWindows,
	)

	s.mcp.AddTool(
		mcp.NewTool("list_displays",
			mcp.WithDescription("List active displays"),
		),
		s.handleListDisplays,
	)

	s.mcp.AddTool(
		mcp.NewTool("stop_monitoring",
			mcp.WithDescription("Stop drift tracking for a profile's apps, or for everything when no name is given"),
			mcp.WithString("name", mcp.Description("Profile name")),
		),
		s.handleStopMonitoring,
	)

	s.mcp.AddTool(
		mcp.NewTool("kill_profile",
			mcp.WithDescription("Terminate every running app of a profile"),
			mcp.WithString("name", mcp.Description("Profile name"), mcp.Required()),
		),
		s.handleKillProfile,
	)
}

func textResult(v interface{}) *mcp.CallToolResult {
	return mcp.NewToolResultText(output.YAMLString(v))
}

func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...))
}

// ProfileSummary is one row of list_profiles.
type ProfileSummary struct {
	Name         string `yaml:"name"            json:"name"`
	DisplayOrder int    `yaml:"display_order"   json:"display_order"`
	Apps         int    `yaml:"apps"            json:"apps"`
	Active       bool   `yaml:"active,omitempty" json:"active,omitempty"`
	Dirty        bool   `yaml:"dirty,omitempty"  json:"dirty,omitempty"`
}

func (s *Server) handleListProfiles(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all, err := s.rt.Store.LoadAll()
	if err != nil {
		return errorResult("listing profiles: %v", err), nil
	}
	out := make([]ProfileSummary, 0, len(all))
	for _, p := range all {
		row := ProfileSummary{Name: p.Name, DisplayOrder: p.DisplayOrder, Apps: len(p.Apps)}
		if a, ok := s.Active(p.Name); ok {
			row.Active = true
			row.Dirty = a.IsDirty()
		}
		out = append(out, row)
	}
	return textResult(out), nil
}

func (s *Server) handleApplyProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringParam(request.GetArguments(), "name", "")
	if name == "" {
		return errorResult("name is required"), nil
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	p, err := s.profile(name)
	if err != nil {
		return errorResult("%v", err), nil
	}
	act, err := s.rt.Activate(ctx, p)
	s.cache.Invalidate()
	if err != nil {
		return errorResult("applying %s: %v", name, err), nil
	}
	s.setActive(p)
	return textResult(act), nil
}

// ProfileStatus is the result of profile_status.
type ProfileStatus struct {
	Profile string              `yaml:"profile"          json:"profile"`
	Active  bool                `yaml:"active"           json:"active"`
	Dirty   bool                `yaml:"dirty,omitempty"  json:"dirty,omitempty"`
	Apps    []applier.AppStatus `yaml:"apps"             json:"apps"`
}

func (s *Server) handleProfileStatus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringParam(request.GetArguments(), "name", "")
	if name == "" {
		return errorResult("name is required"), nil
	}
	p, err := s.profile(name)
	if err != nil {
		return errorResult("%v", err), nil
	}
	_, active := s.Active(name)
	return textResult(ProfileStatus{
		Profile: name,
		Active:  active,
		Dirty:   p.IsDirty(),
		Apps:    s.rt.Status(p),
	}), nil
}

func (s *Server) handleCaptureProfile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	name := stringParam(params, "name", "")
	save := boolParam(params, "save", true)
	opts := capture.Options{Include: listParam(params, "include"), Exclude: listParam(params, "exclude")}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	p, err := s.rt.Capture(name, opts)
	if err != nil {
		return errorResult("%v", err), nil
	}
	if save {
		if err := s.save(p); err != nil {
			return errorResult("%v", err), nil
		}
	}
	s.setActive(p)
	return textResult(ProfileStatus{Profile: p.Name, Active: true, Dirty: p.IsDirty(), Apps: s.rt.Applier.Status(p)}), nil
}

func (s *Server) handleSaveProfile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringParam(request.GetArguments(), "name", "")
	p, ok := s.Active(name)
	if !ok {
		return errorResult("profile %q has not been applied in this session", name), nil
	}
	if err := s.save(p); err != nil {
		return errorResult("%v", err), nil
	}
	return textResult(map[string]interface{}{"saved": name, "apps": len(p.Apps)}), nil
}

func (s *Server) handleListWindows(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	all := boolParam(params, "all", false)
	pid := intParam(params, "pid", 0)

	windows, err := s.cache.ListWindows(s.rt.Provider.Windows)
	if err != nil {
		return errorResult("%v", err), nil
	}
	out := make([]model.Window, 0, len(windows))
	for _, w := range windows {
		if (!all && !w.IsUserWindow()) || (pid != 0 && w.PID != pid) {
			continue
		}
		out = append(out, w)
	}
	return textResult(out), nil
}

func (s *Server) handleListDisplays(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.rt.Provider.Displays == nil {
		return errorResult("displays not available on this platform"), nil
	}
	ds, err := s.rt.Provider.Displays.GetActiveDisplays()
	if err != nil {
		return errorResult("%v", err), nil
	}
	return textResult(ds), nil
}

func (s *Server) handleStopMonitoring(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringParam(request.GetArguments(), "name", "")
	if name == "" {
		n := s.rt.Monitors.Count()
		s.rt.Monitors.StopAll()
		return textResult(map[string]int{"stopped": n}), nil
	}
	p, ok := s.Active(name)
	if !ok {
		return errorResult("profile %q has not been applied in this session", name), nil
	}
	n := 0
	for _, e := range p.Apps {
		if pid := e.ProcessID(); pid != 0 && s.rt.Monitors.Active(pid) {
			s.rt.Monitors.Stop(pid)
			n++
		}
	}
	return textResult(map[string]int{"stopped": n}), nil
}

func (s *Server) handleKillProfile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringParam(request.GetArguments(), "name", "")
	if name == "" {
		return errorResult("name is required"), nil
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	p, err := s.profile(name)
	if err != nil {
		return errorResult("%v", err), nil
	}
	n := s.rt.Kill(p)
	s.cache.Invalidate()
	return textResult(map[string]int{"killed": n}), nil
}
