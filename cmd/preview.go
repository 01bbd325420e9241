package cmd

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/platform"
	"github.com/mj1618/desktop-organizer/internal/preview"
)

var previewCmd = &cobra.Command{
	Use:   "preview <profile>",
	Short: "Render a profile's window layout as a PNG",
	Long: `Draw the active displays and every saved window position of a profile,
without launching or moving anything. Displays are outlined (the primary one
in yellow) and each application is a labelled red box.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().String("output", "", "Output file path (default: stdout as base64)")
	previewCmd.Flags().Float64("scale", preview.DefaultScale, "Scale factor 0.01-1.0")
	previewCmd.Flags().Bool("no-displays", false, "Do not query the display server for monitors")
}

func runPreview(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("output")
	scale, _ := cmd.Flags().GetFloat64("scale")
	noDisplays, _ := cmd.Flags().GetBool("no-displays")

	store, err := openStore()
	if err != nil {
		return err
	}
	p, err := store.Load(args[0])
	if err != nil {
		return err
	}

	var displays []model.Display
	if !noDisplays {
		displays, err = activeDisplays()
		if err != nil {
			logger.Warn("drawing without displays", zap.Error(err))
		}
	}

	buf := &bytes.Buffer{}
	if err := preview.WritePNG(buf, p, displays, scale); err != nil {
		return fmt.Errorf("rendering preview: %w", err)
	}

	if outPath != "" {
		return os.WriteFile(outPath, buf.Bytes(), 0644)
	}

	// Default: write to stdout as base64 for easy agent consumption
	encoder := base64.NewEncoder(base64.StdEncoding, os.Stdout)
	if _, err := encoder.Write(buf.Bytes()); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	fmt.Println() // newline after base64
	return nil
}

func activeDisplays() ([]model.Display, error) {
	provider, err := platform.NewProvider()
	if err != nil {
		return nil, err
	}
	if provider.Displays == nil {
		return nil, fmt.Errorf("display query not available on this platform")
	}
	return provider.Displays.GetActiveDisplays()
}
