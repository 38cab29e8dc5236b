package sim

import "github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"

// MultiWriter fans out telemetry records to multiple writers.
type MultiWriter struct {
	writers []TelemetryWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...TelemetryWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Write sends a record to all writers.
func (mw *MultiWriter) Write(rec telemetry.Record) error {
	for _, w := range mw.writers {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple records to all writers, using batch mode where
// supported.
func (mw *MultiWriter) WriteBatch(recs []telemetry.Record) error {
	for _, w := range mw.writers {
		if err := writeAll(w, recs); err != nil {
			return err
		}
	}
	return nil
}
