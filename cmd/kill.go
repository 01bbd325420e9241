package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-organizer/internal/output"
)

// KillResult is the output of kill.
type KillResult struct {
	OK      bool   `yaml:"ok"      json:"ok"`
	Action  string `yaml:"action"  json:"action"`
	Profile string `yaml:"profile" json:"profile"`
	Killed  int    `yaml:"killed"  json:"killed"`
}

var killCmd = &cobra.Command{
	Use:   "kill <profile>",
	Short: "Terminate the running applications of a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runKill,
}

func init() {
	rootCmd.AddCommand(killCmd)
}

func runKill(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	p, err := rt.Store.Load(args[0])
	if err != nil {
		return err
	}
	n := rt.Kill(p)
	return output.Print(KillResult{OK: true, Action: "kill", Profile: p.Name, Killed: n})
}
