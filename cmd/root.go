package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mj1618/desktop-organizer/internal/app"
	"github.com/mj1618/desktop-organizer/internal/config"
	"github.com/mj1618/desktop-organizer/internal/logging"
	"github.com/mj1618/desktop-organizer/internal/output"
	"github.com/mj1618/desktop-organizer/internal/platform"
	"github.com/mj1618/desktop-organizer/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "desktop-organizer",
	Short: "Restore application layouts from workspace profiles",
	Long: `Keep named workspace profiles of applications and window positions.

Applying a profile launches its applications, forces their windows to the
saved coordinates and keeps tracking where you move them.`,
	SilenceUsage: true,
}

var (
	cfg    *config.Config
	logger *logging.Logger
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "", "Output format: yaml, json (default yaml)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/desktop-organizer/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Override logging.level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("profiles-dir", "", "Override profiles_dir")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		if prettyFlag := cmd.Flags().Lookup("pretty"); prettyFlag != nil {
			if pretty, err := cmd.Flags().GetBool("pretty"); err == nil && pretty {
				output.PrettyOutput = true
			}
		}

		path, _ := rootCmd.PersistentFlags().GetString("config")
		v := viper.New()
		if err := config.Init(v, path); err != nil {
			return err
		}
		if lvl, _ := rootCmd.PersistentFlags().GetString("log-level"); lvl != "" {
			v.Set("logging.level", lvl)
		}
		if dir, _ := rootCmd.PersistentFlags().GetString("profiles-dir"); dir != "" {
			v.Set("profiles_dir", dir)
		}
		cfg, err = config.Load(v)
		if err != nil {
			return err
		}

		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
			OutputPaths: cfg.Logging.OutputPaths,
		})
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		setPlatformLogger(logger)
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	}
}

// newRuntime connects to the platform and wires the profile engine.
func newRuntime() (*app.Runtime, error) {
	provider, err := platform.NewProvider()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, provider, logger)
}
