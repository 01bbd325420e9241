package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-organizer/internal/output"
	"github.com/mj1618/desktop-organizer/internal/platform"
)

// WaitResult is the output of a wait command.
type WaitResult struct {
	OK       bool     `yaml:"ok"                  json:"ok"`
	Action   string   `yaml:"action"              json:"action"`
	Elapsed  string   `yaml:"elapsed"             json:"elapsed"`
	Match    string   `yaml:"match,omitempty"     json:"match,omitempty"`
	Missing  []string `yaml:"missing,omitempty"   json:"missing,omitempty"`
	TimedOut bool     `yaml:"timed_out,omitempty" json:"timed_out,omitempty"`
}

var waitCmd = &cobra.Command{
	Use:   "wait [profile]",
	Short: "Wait until application windows appear",
	Long: `Poll the window list until every application of a profile (or the
executables given with --exe) has a visible window, or until timeout.

With --gone, wait until none of them has a window.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().StringSlice("exe", nil, "Executable path to wait for (repeatable)")
	waitCmd.Flags().Bool("gone", false, "Invert: wait until the windows are gone")
	waitCmd.Flags().Int("timeout", 30, "Max seconds to wait")
	waitCmd.Flags().Int("interval", 500, "Polling interval in milliseconds")
}

func runWait(cmd *cobra.Command, args []string) error {
	exes, _ := cmd.Flags().GetStringSlice("exe")
	gone, _ := cmd.Flags().GetBool("gone")
	timeoutSec, _ := cmd.Flags().GetInt("timeout")
	intervalMs, _ := cmd.Flags().GetInt("interval")

	if len(args) == 0 && len(exes) == 0 {
		return fmt.Errorf("specify a profile or at least one --exe")
	}
	if len(args) > 0 {
		store, err := openStore()
		if err != nil {
			return err
		}
		p, err := store.Load(args[0])
		if err != nil {
			return err
		}
		for _, e := range p.Apps {
			exes = append(exes, e.ExecutablePath)
		}
	}
	for i, exe := range exes {
		if abs, err := filepath.Abs(exe); err == nil {
			exes[i] = abs
		}
	}

	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}

	timeout := time.Duration(timeoutSec) * time.Second
	interval := time.Duration(intervalMs) * time.Millisecond
	deadline := time.Now().Add(timeout)
	start := time.Now()
	desc := describeWait(exes, gone)

	for {
		missing := pendingWindows(provider.Windows, exes, gone)
		if len(missing) == 0 {
			return output.Print(WaitResult{
				OK:      true,
				Action:  "wait",
				Elapsed: fmt.Sprintf("%.1fs", time.Since(start).Seconds()),
				Match:   desc,
			})
		}

		if time.Now().After(deadline) {
			// Print the result, then return an error for non-zero exit code
			_ = output.Print(WaitResult{
				OK:       false,
				Action:   "wait",
				Elapsed:  fmt.Sprintf("%.1fs", time.Since(start).Seconds()),
				Match:    desc,
				Missing:  missing,
				TimedOut: true,
			})
			return fmt.Errorf("timed out waiting for %s", desc)
		}

		time.Sleep(interval)
	}
}

// pendingWindows returns the executables whose window state does not yet
// match: no window yet, or with gone, a window still open.
func pendingWindows(windows platform.WindowManager, exes []string, gone bool) []string {
	var pending []string
	for _, exe := range exes {
		_, found := windows.FindWindowByExecutablePath(exe)
		if found == gone {
			pending = append(pending, exe)
		}
	}
	return pending
}

func describeWait(exes []string, gone bool) string {
	names := make([]string, len(exes))
	for i, exe := range exes {
		names[i] = filepath.Base(exe)
	}
	desc := "windows=" + strings.Join(names, ",")
	if gone {
		desc += " (gone)"
	}
	return desc
}
