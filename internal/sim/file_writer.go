package sim

import (
	"encoding/json"
	"os"

	"github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"
)

// FileWriter exports telemetry records to a JSONL file, suitable for later
// replay.
type FileWriter struct {
	file *os.File
	enc  *json.Encoder
}

// NewFileWriter creates (truncates) the file at path.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// Write logs a single record.
func (f *FileWriter) Write(rec telemetry.Record) error {
	return f.enc.Encode(rec)
}

// WriteBatch logs multiple records.
func (f *FileWriter) WriteBatch(recs []telemetry.Record) error {
	for _, r := range recs {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (f *FileWriter) Close() error {
	return f.file.Close()
}
