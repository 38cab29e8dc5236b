// Writer implementation printing telemetry to STDOUT
package sim

import (
	"encoding/json"
	"fmt"

	"github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"
)

// StdoutWriter prints telemetry records to STDOUT as JSON lines.
type StdoutWriter struct{}

// Write outputs a single record.
func (w *StdoutWriter) Write(rec telemetry.Record) error {
	data, _ := json.Marshal(rec)
	fmt.Println(string(data))
	return nil
}

// WriteBatch outputs multiple records.
func (w *StdoutWriter) WriteBatch(recs []telemetry.Record) error {
	for _, r := range recs {
		_ = w.Write(r)
	}
	return nil
}
