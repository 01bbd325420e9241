package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/desktop-organizer/internal/output"
)

var applyCmd = &cobra.Command{
	Use:   "apply <profile>",
	Short: "Apply a workspace profile",
	Long: `Switch to the profile's virtual desktop, set its volume, launch its
applications and force their windows to the saved positions.

Window tracking only lives as long as this process. Use --hold to keep
tracking until Ctrl+C; positions you change meanwhile are written back to the
profile on exit unless --no-save is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().Bool("hold", false, "Keep tracking windows until interrupted")
	applyCmd.Flags().Bool("no-save", false, "Do not write tracked positions back to the profile (with --hold)")
	applyCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
}

func runApply(cmd *cobra.Command, args []string) error {
	hold, _ := cmd.Flags().GetBool("hold")
	noSave, _ := cmd.Flags().GetBool("no-save")

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Shutdown()

	ctx, stop := signalContext()
	defer stop()

	p, err := rt.Store.Load(args[0])
	if err != nil {
		return err
	}
	markDirtyOnDrift(rt, p)
	act, err := rt.Activate(ctx, p)
	if err != nil {
		return err
	}
	if err := output.Print(act); err != nil {
		return err
	}
	if !hold {
		return nil
	}

	logger.Info("tracking windows, press Ctrl+C to stop", zap.String("profile", p.Name), zap.Int("monitors", rt.Monitors.Count()))
	<-ctx.Done()
	rt.Shutdown()

	if noSave || !p.IsDirty() {
		return nil
	}
	if err := rt.Store.Save(p); err != nil {
		return fmt.Errorf("saving tracked positions: %w", err)
	}
	logger.Info("saved tracked positions", zap.String("profile", p.Name))
	return nil
}
