package cmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/output"
)

var watchCmd = &cobra.Command{
	Use:   "watch <profile>",
	Short: "Apply a profile and stream window drift as JSONL",
	Long: `Apply a profile (or, with --attach, pick up its already running
applications) and stream every window move, resize, style change and process
exit as JSONL to stdout.

Each line is a JSON object representing one event. No output is emitted while
windows stay put. Output is always JSONL regardless of the --format flag.

Use Ctrl+C or --duration to stop watching.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("attach", false, "Track already running applications instead of applying the profile")
	watchCmd.Flags().Int("duration", 0, "Max seconds to watch (0 = until Ctrl+C)")
	watchCmd.Flags().Bool("save", false, "Write tracked positions back to the profile on exit")
}

func runWatch(cmd *cobra.Command, args []string) error {
	attach, _ := cmd.Flags().GetBool("attach")
	durationSec, _ := cmd.Flags().GetInt("duration")
	save, _ := cmd.Flags().GetBool("save")

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

	var mu sync.Mutex
	emit := func(v interface{}) {
		mu.Lock()
		defer mu.Unlock()
		_ = output.PrintJSON(v)
	}

	eventCount := 0
	markDirtyOnDrift(rt, p)
	rt.Monitors.OnDrift(func(_ *model.ApplicationEntry, ev model.DriftEvent) {
		mu.Lock()
		eventCount++
		mu.Unlock()
		emit(ev)
	})

	start := time.Now()
	if attach {
		rt.Applier.Attach(p)
		for _, e := range p.Apps {
			if e.IsLive() {
				rt.Monitors.Start(e)
			}
		}
	} else {
		act, err := rt.Activate(ctx, p)
		if err != nil {
			return err
		}
		emit(map[string]interface{}{
			"type":    "applied",
			"ts":      time.Now().Unix(),
			"run_id":  act.RunID,
			"running": act.Running(),
			"failed":  act.Failed(),
		})
	}

	// Emit snapshot event
	emit(map[string]interface{}{
		"type":     "snapshot",
		"ts":       time.Now().Unix(),
		"monitors": rt.Monitors.Count(),
	})

	if durationSec > 0 {
		timer := time.NewTimer(time.Duration(durationSec) * time.Second)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	} else {
		<-ctx.Done()
	}
	rt.Shutdown()

	if save && p.IsDirty() {
		if err := rt.Store.Save(p); err != nil {
			return fmt.Errorf("saving tracked positions: %w", err)
		}
	}

	// Emit done event
	mu.Lock()
	events := eventCount
	mu.Unlock()
	emit(map[string]interface{}{
		"type":    "done",
		"ts":      time.Now().Unix(),
		"elapsed": fmt.Sprintf("%.1fs", time.Since(start).Seconds()),
		"events":  events,
	})
	return nil
}
