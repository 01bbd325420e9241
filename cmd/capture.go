package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-organizer/internal/capture"
	"github.com/mj1618/desktop-organizer/internal/output"
	"github.com/mj1618/desktop-organizer/internal/profiles"
)

var captureCmd = &cobra.Command{
	Use:   "capture <name>",
	Short: "Create a profile from the windows currently on screen",
	Long: `Snapshot every visible application window larger than 100x100 into a
profile. Each executable is captured once, at the position of its first window.

The profile is printed; pass --save to write it to the profiles directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().Bool("save", false, "Save the captured profile")
	captureCmd.Flags().Bool("force", false, "Overwrite an existing profile with the same name (with --save)")
	captureCmd.Flags().StringSlice("include", nil, "Only capture executables or window classes containing these substrings")
	captureCmd.Flags().StringSlice("exclude", nil, "Skip executables or window classes containing these substrings")
	captureCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
}

func runCapture(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")
	force, _ := cmd.Flags().GetBool("force")
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	name := args[0]

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	if save && !force {
		if _, err := rt.Store.Load(name); err == nil {
			return fmt.Errorf("%w: %s (use --force to overwrite)", profiles.ErrExists, name)
		} else if !errors.Is(err, profiles.ErrNotFound) {
			return err
		}
	}

	p, err := rt.Capture(name, capture.Options{Include: include, Exclude: exclude})
	if err != nil {
		return err
	}
	if save {
		if err := rt.Store.Save(p); err != nil {
			return err
		}
	}
	return output.Print(p)
}
