package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/output"
	"github.com/mj1618/desktop-organizer/internal/stabilize"
)

// LaunchResult is the output of launch.
type LaunchResult struct {
	OK        bool              `yaml:"ok"                  json:"ok"`
	Action    string            `yaml:"action"              json:"action"`
	App       string            `yaml:"app"                 json:"app"`
	Path      string            `yaml:"path"                json:"path"`
	Status    model.Status      `yaml:"status"              json:"status"`
	PID       int               `yaml:"pid,omitempty"       json:"pid,omitempty"`
	Window    string            `yaml:"window,omitempty"    json:"window,omitempty"`
	Error     string            `yaml:"error,omitempty"     json:"error,omitempty"`
	Stabilize *stabilize.Result `yaml:"stabilize,omitempty" json:"stabilize,omitempty"`
}

var launchCmd = &cobra.Command{
	Use:   "launch <executable>",
	Short: "Launch one application and wait for its window",
	Long: `Start an executable, wait up to max_poll_attempts x poll_interval_ms for
its main window and, with --rect, force the window to that position.

Examples:
  desktop-organizer launch /usr/bin/gedit
  desktop-organizer launch /usr/bin/xterm --rect 0,0,800,600`,
	Args: cobra.ExactArgs(1),
	RunE: runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)
	launchCmd.Flags().String("name", "", "Display name (default: executable base name)")
	launchCmd.Flags().String("rect", "", "Position the window at x,y,w,h once it appears")
	launchCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
}

func runLaunch(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	rectStr, _ := cmd.Flags().GetString("rect")

	var rect model.Rect
	if rectStr != "" {
		r, err := model.ParseRect(rectStr)
		if err != nil {
			return err
		}
		rect = r
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if name == "" {
		name = filepath.Base(path)
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	e := model.NewEntry(path, name, rect)
	launchErr := rt.Launcher.LaunchOne(ctx, e)

	st := e.State()
	res := LaunchResult{
		OK:     launchErr == nil,
		Action: "launch",
		App:    e.Name(),
		Path:   e.ExecutablePath,
		Status: st.Status,
		PID:    st.ProcessID,
		Error:  st.LastError,
	}
	if st.WindowHandle != 0 {
		res.Window = st.WindowHandle.String()
	}
	if launchErr == nil && e.HasSavedPosition() {
		r := rt.Enforcer.ForceUntilStable(ctx, e)
		res.Stabilize = &r
	}
	if err := output.Print(res); err != nil {
		return err
	}
	// Print the result, then return the failure for a non-zero exit code
	return launchErr
}
