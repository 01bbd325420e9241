package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/output"
	"github.com/mj1618/desktop-organizer/internal/platform"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List open windows or active displays",
	Long:  "List top-level windows with their pid, title, class and bounds, or the active displays with --displays.",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("displays", false, "List active displays instead of windows")
	listCmd.Flags().Bool("all", false, "Include hidden and tool windows")
	listCmd.Flags().Int("pid", 0, "Filter windows by PID")
	listCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
}

func runList(cmd *cobra.Command, args []string) error {
	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}

	displays, _ := cmd.Flags().GetBool("displays")
	all, _ := cmd.Flags().GetBool("all")
	pid, _ := cmd.Flags().GetInt("pid")

	if displays {
		if provider.Displays == nil {
			return fmt.Errorf("display query not available on this platform")
		}
		ds, err := provider.Displays.GetActiveDisplays()
		if err != nil {
			return err
		}
		return output.Print(ds)
	}

	windows, err := provider.Windows.ListWindows()
	if err != nil {
		return err
	}
	return output.Print(filterWindows(windows, all, pid))
}

func filterWindows(windows []model.Window, all bool, pid int) []model.Window {
	out := []model.Window{}
	for _, w := range windows {
		if !all && !w.IsUserWindow() {
			continue
		}
		if pid != 0 && w.PID != pid {
			continue
		}
		out = append(out, w)
	}
	return out
}
