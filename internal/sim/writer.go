package sim

import (
	"context"

	"github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"
)

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.Record) error
}

// Optional: writers can also support batch mode.
type batchWriter interface {
	WriteBatch([]telemetry.Record) error
}

// TelemetryStore is the persistence contract the driver depends on: append
// one or many records, count everything, and fetch the most recent record
// for a drone. The core never updates or deletes records.
type TelemetryStore interface {
	TelemetryWriter
	WriteBatch([]telemetry.Record) error
	Count(ctx context.Context) (int64, error)
	Latest(ctx context.Context, droneID string) (telemetry.Record, bool, error)
}

// writeAll sends a batch through w, using batch mode when supported.
func writeAll(w TelemetryWriter, batch []telemetry.Record) error {
	if bw, ok := w.(batchWriter); ok {
		return bw.WriteBatch(batch)
	}
	for _, r := range batch {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}
