package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PepelaJohn/luna-app-telemetry/internal/admin"
	"github.com/PepelaJohn/luna-app-telemetry/internal/config"
	"github.com/PepelaJohn/luna-app-telemetry/internal/logging"
	"github.com/PepelaJohn/luna-app-telemetry/internal/override"
	"github.com/PepelaJohn/luna-app-telemetry/internal/sim"
	"github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"
)

var (
	simPrintOnly  bool
	simConfigPath string
	simSchemaPath string
	simTick       time.Duration
	simLogFile    string
	simTUI        bool
	simAdminAddr  string
	simSeed       int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the delivery-fleet simulator",
	Long:  "simulate backfills history on a cold start, then emits one telemetry record per drone per tick, honoring manual overrides set through the admin surface.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New()
		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), log))
		defer cancel()

		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}
		if simTick > 0 {
			cfg.TickInterval = simTick
		}
		if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return err
			}
			cfg.TickInterval = d
		}

		store, err := newStore(simPrintOnly)
		if err != nil {
			return err
		}
		if _, ok := store.(*sim.MemoryStore); ok {
			log.Info("print-only mode: telemetry is not persisted")
		}

		// With the TUI active, plain stdout output would corrupt the screen.
		writer, cleanup, err := newLiveWriter(cfg, simPrintOnly && !simTUI, simTUI, simLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		var rng telemetry.Rand
		if simSeed != 0 {
			rng = rand.New(rand.NewSource(simSeed))
		}

		overrides := override.NewRegistry()
		driver := sim.NewDriver(cfg, store, writer, overrides, rng)

		srv := admin.NewServer(driver, overrides, store)
		go func() {
			log.Info("admin surface listening", "addr", simAdminAddr)
			if err := srv.Start(ctx, simAdminAddr); err != nil && err != http.ErrServerClosed {
				log.Error("admin server failed", "err", err)
			}
		}()

		if err := driver.Start(ctx); err != nil {
			// Leave the driver stopped; the operator can retry.
			return err
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs

		driver.Stop()
		cancel()
		log.Info("simulation stopped")
		return nil
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to DB")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	simulateCmd.Flags().DurationVar(&simTick, "tick", 0, "Telemetry tick interval (e.g. 500ms, 2s); overrides config")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export telemetry log (JSONL)")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Render a live fleet TUI instead of JSON lines")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin-addr", ":8080", "Admin surface listen address")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Random seed for reproducible runs (0 = time-seeded)")
}
