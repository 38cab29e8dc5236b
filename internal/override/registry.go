// Manual-override registry shared by the driver and the admin surface
package override

import (
	"sync"
	"time"

	"github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"
)

// DefaultDuration is applied when an override request carries no explicit
// duration.
const DefaultDuration = 5 * time.Minute

// Entry is the manual-control state for one drone.
type Entry struct {
	Status         telemetry.Status    `json:"status"`
	Online         bool                `json:"online"`
	Battery        *float64            `json:"battery,omitempty"`
	LastUpdate     time.Time           `json:"last_update"`
	ManualOverride bool                `json:"manual_override"`
	ExpiresAt      *time.Time          `json:"expires_at,omitempty"`
	LastPosition   *telemetry.Position `json:"last_position,omitempty"`
}

// Registry maps drone IDs to manual-control entries. It is constructed once
// at process start and injected into both the driver and the admin handler;
// there is no ambient singleton. All access is serialized by one mutex.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Set stores the entry for id, replacing any previous one.
func (r *Registry) Set(id string, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.LastUpdate = r.now()
	cp := e
	r.entries[id] = &cp
}

// Clear removes the entry for id.
func (r *Registry) Clear(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// IsOverridden reports whether id is currently pinned by an operator.
// Despite the name this is a write-capable operation: an entry whose expiry
// has passed is cleared in place (flag dropped, expiry removed) before false
// is returned. Check and clear happen under one critical section, so no
// caller observes a half-cleared entry. Unknown IDs are simply not
// overridden, never an error.
func (r *Registry) IsOverridden(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || !e.ManualOverride {
		return false
	}
	if e.ExpiresAt != nil && r.now().After(*e.ExpiresAt) {
		e.ManualOverride = false
		e.ExpiresAt = nil
		return false
	}
	return true
}

// Get returns a copy of the entry for id.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Snapshot returns a copy of all entries.
func (r *Registry) Snapshot() map[string]Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Entry, len(r.entries))
	for id, e := range r.entries {
		out[id] = *e
	}
	return out
}
