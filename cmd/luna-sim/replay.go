package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PepelaJohn/luna-app-telemetry/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a telemetry log file",
	Long:  "replay feeds telemetry records from a JSONL log back into GreptimeDB or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		var writer sim.TelemetryWriter
		store, err := newStore(replayPrintOnly)
		if err != nil {
			return err
		}
		writer = store
		if _, ok := store.(*sim.MemoryStore); ok {
			writer = &sim.StdoutWriter{}
		}
		return sim.ReplayLogFile(replayInput, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to telemetry log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to DB")
	_ = replayCmd.MarkFlagRequired("input")
}
