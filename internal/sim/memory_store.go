package sim

import (
	"context"
	"sync"

	"github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"
)

// MemoryStore keeps records in memory. It backs print-only mode, where no
// GreptimeDB endpoint is configured, and the driver tests.
type MemoryStore struct {
	mu   sync.Mutex
	recs []telemetry.Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Write appends one record.
func (m *MemoryStore) Write(rec telemetry.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

// WriteBatch appends multiple records.
func (m *MemoryStore) WriteBatch(recs []telemetry.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, recs...)
	return nil
}

// Count returns the number of stored records.
func (m *MemoryStore) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.recs)), nil
}

// Latest returns the most recent record for a drone.
func (m *MemoryStore) Latest(ctx context.Context, droneID string) (telemetry.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out telemetry.Record
	found := false
	for _, r := range m.recs {
		if r.DroneID != droneID {
			continue
		}
		if !found || r.Timestamp.After(out.Timestamp) {
			out = r
			found = true
		}
	}
	return out, found, nil
}

// Records returns a copy of everything stored.
func (m *MemoryStore) Records() []telemetry.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]telemetry.Record, len(m.recs))
	copy(out, m.recs)
	return out
}
