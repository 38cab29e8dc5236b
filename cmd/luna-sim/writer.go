package main

import (
	"os"

	"golang.org/x/term"

	"github.com/PepelaJohn/luna-app-telemetry/internal/config"
	"github.com/PepelaJohn/luna-app-telemetry/internal/sim"
)

// newStore picks the telemetry store: GreptimeDB when an endpoint is
// configured and print-only is off, otherwise an in-memory store.
// GREPTIMEDB_ENDPOINT is the gRPC ingest address; GREPTIMEDB_HTTP_URL
// optionally overrides the HTTP SQL base used for queries.
func newStore(printOnly bool) (sim.TelemetryStore, error) {
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if printOnly || endpoint == "" {
		return sim.NewMemoryStore(), nil
	}
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	return sim.NewGreptimeStore(endpoint, os.Getenv("GREPTIMEDB_HTTP_URL"), database)
}

// newLiveWriter assembles the optional live fan-out: stdout JSONL, a JSONL
// log file, or the TUI. Returns a cleanup for any file resources.
func newLiveWriter(cfg *config.SimulationConfig, stdout, useTUI bool, logFile string) (sim.TelemetryWriter, func(), error) {
	cleanup := func() {}
	var writers []sim.TelemetryWriter

	if useTUI && term.IsTerminal(int(os.Stdout.Fd())) {
		writers = append(writers, sim.NewTUIWriter(cfg))
	} else if stdout {
		writers = append(writers, &sim.StdoutWriter{})
	}
	if logFile != "" {
		fw, err := sim.NewFileWriter(logFile)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { _ = fw.Close() }
		writers = append(writers, fw)
	}

	switch len(writers) {
	case 0:
		return nil, cleanup, nil
	case 1:
		return writers[0], cleanup, nil
	default:
		return sim.NewMultiWriter(writers...), cleanup, nil
	}
}
