package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-organizer/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status <profile>",
	Short: "Show which applications of a profile are running",
	Long:  "Match the profile's applications to open windows and report their status, pid and window.",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	p, err := rt.Store.Load(args[0])
	if err != nil {
		return err
	}
	return output.Print(rt.Status(p))
}
