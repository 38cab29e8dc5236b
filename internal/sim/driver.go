// Simulation driver orchestrating mission steps and telemetry ticks
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/PepelaJohn/luna-app-telemetry/internal/config"
	"github.com/PepelaJohn/luna-app-telemetry/internal/logging"
	"github.com/PepelaJohn/luna-app-telemetry/internal/mission"
	"github.com/PepelaJohn/luna-app-telemetry/internal/override"
	"github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"
)

const (
	// DefaultTickInterval is the wall-clock period between ticks. Each tick
	// still advances mission time by mission.StepSeconds.
	DefaultTickInterval = 5 * time.Second

	// Backfill shape: one point per drone every 3 minutes over the window,
	// written in chunks to bound per-call payload size.
	DefaultBackfillHours   = 24
	backfillSampleInterval = 3 * time.Minute
	backfillChunkSize      = 100
)

// DroneStatus is the per-drone slice of a driver status snapshot.
type DroneStatus struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Battery    float64         `json:"battery"`
	Phase      telemetry.Phase `json:"phase"`
	Lat        float64         `json:"lat"`
	Lng        float64         `json:"lng"`
	Overridden bool            `json:"overridden"`
}

// DriverStatus reports the driver state and a fleet snapshot.
type DriverStatus struct {
	Running    bool          `json:"running"`
	DroneCount int           `json:"drone_count"`
	Drones     []DroneStatus `json:"drones"`
}

// Driver owns the drone profiles and runs the periodic simulation tick.
// Profiles are created once at construction and mutated only under mu.
type Driver struct {
	mu       sync.Mutex
	running  bool
	starting bool
	cancel   context.CancelFunc
	done     chan struct{}

	drones    []*telemetry.Drone
	engine    *mission.Engine
	gen       *telemetry.Generator
	overrides *override.Registry
	store     TelemetryStore
	writer    TelemetryWriter // optional live fan-out (stdout, file, TUI)

	tickInterval  time.Duration
	backfillHours int
	now           func() time.Time
}

// NewDriver initializes drone profiles from config. writer may be nil; rng
// may be nil for a time-seeded source.
func NewDriver(cfg *config.SimulationConfig, store TelemetryStore, writer TelemetryWriter, overrides *override.Registry, rng telemetry.Rand) *Driver {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	hours := cfg.BackfillHours
	if hours <= 0 {
		hours = DefaultBackfillHours
	}

	d := &Driver{
		engine:        mission.NewEngine(cfg.Sites, rng),
		gen:           telemetry.NewGenerator(rng),
		overrides:     overrides,
		store:         store,
		writer:        writer,
		tickInterval:  tick,
		backfillHours: hours,
		now:           time.Now,
	}
	for _, dc := range cfg.Drones {
		d.drones = append(d.drones, &telemetry.Drone{
			ID:                 dc.ID,
			Name:               dc.Name,
			Base:               telemetry.Position{Lat: dc.BaseLat, Lng: dc.BaseLng},
			BatteryDecayRate:   dc.BatteryDecayRate,
			MaxSpeedKmh:        dc.MaxSpeedKmh,
			OperatingAltitudeM: dc.OperatingAltitudeM,
			Battery:            100,
			Position:           telemetry.Position{Lat: dc.BaseLat, Lng: dc.BaseLng},
			Phase:              telemetry.PhaseIdle,
		})
	}
	return d
}

// Start verifies the store is reachable, backfills history on a cold start,
// performs one synchronous tick so first data is available immediately, and
// begins the periodic loop. Calling Start on a running driver is a no-op.
// On error the driver stays stopped for a later retry.
func (d *Driver) Start(ctx context.Context) error {
	// The starting flag keeps a second Start out for the whole backfill
	// window, not just until running flips.
	d.mu.Lock()
	if d.running || d.starting {
		d.mu.Unlock()
		return nil
	}
	d.starting = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.starting = false
		d.mu.Unlock()
	}()

	log := logging.FromContext(ctx)

	count, err := d.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("telemetry store unreachable: %w", err)
	}
	if count == 0 {
		log.Info("empty store, backfilling history", "hours", d.backfillHours)
		if err := d.backfill(ctx); err != nil {
			return fmt.Errorf("backfill: %w", err)
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.running = true
	d.cancel = cancel
	d.done = make(chan struct{})
	d.mu.Unlock()

	log.Info("driver starting", "drones", len(d.drones), "tick_interval", d.tickInterval)
	d.tick(loopCtx)
	go d.run(loopCtx)
	return nil
}

// Stop cancels the tick loop and waits for it to drain. No-op when stopped.
func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	cancel()
	<-done
}

func (d *Driver) run(ctx context.Context) {
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
		close(d.done)
	}()

	// Cooperative schedule: tick n+1 is not consumed until tick n's append
	// has settled, so there is never more than one writer in flight.
	ticker := time.NewTicker(d.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// tick advances every non-overridden drone by one mission step and appends
// the collected records as a single batch. Append failures are logged and
// dropped; the next tick retries independently.
func (d *Driver) tick(ctx context.Context) {
	log := logging.FromContext(ctx)

	d.mu.Lock()
	now := d.now()
	batch := make([]telemetry.Record, 0, len(d.drones))
	for _, dr := range d.drones {
		if d.overrides.IsOverridden(dr.ID) {
			continue
		}
		if dr.Phase != telemetry.PhaseIdle && dr.Destination == nil {
			log.Warn("drone profile missing destination, skipping this cycle",
				"drone_id", dr.ID, "phase", dr.Phase)
			continue
		}
		d.engine.Step(dr, now)
		batch = append(batch, d.gen.LivePoint(dr, now))
	}
	d.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	if err := d.store.WriteBatch(batch); err != nil {
		log.Error("telemetry append failed, retrying next tick", "err", err)
	}
	if d.writer != nil {
		if err := writeAll(d.writer, batch); err != nil {
			log.Error("live writer failed", "err", err)
		}
	}
}

// backfill generates the historical window for every drone, chunked so no
// single store call exceeds backfillChunkSize records.
func (d *Driver) backfill(ctx context.Context) error {
	end := d.now()
	start := end.Add(-time.Duration(d.backfillHours) * time.Hour)

	var chunk []telemetry.Record
	for _, dr := range d.drones {
		for ts := start; !ts.After(end); ts = ts.Add(backfillSampleInterval) {
			chunk = append(chunk, d.gen.HistoricalPoint(dr, ts))
			if len(chunk) >= backfillChunkSize {
				if err := d.store.WriteBatch(chunk); err != nil {
					return err
				}
				chunk = nil
			}
		}
	}
	if len(chunk) > 0 {
		return d.store.WriteBatch(chunk)
	}
	return nil
}

// Status returns the driver state and a per-drone snapshot. A pure read,
// except for the lazy expiry-clear embedded in the override check.
func (d *Driver) Status() DriverStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := DriverStatus{Running: d.running, DroneCount: len(d.drones)}
	for _, dr := range d.drones {
		st.Drones = append(st.Drones, DroneStatus{
			ID:         dr.ID,
			Name:       dr.Name,
			Battery:    dr.Battery,
			Phase:      dr.Phase,
			Lat:        dr.Position.Lat,
			Lng:        dr.Position.Lng,
			Overridden: d.overrides.IsOverridden(dr.ID),
		})
	}
	return st
}

// Drone returns a copy of the profile for id.
func (d *Driver) Drone(id string) (telemetry.Drone, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, dr := range d.drones {
		if dr.ID == id {
			return *dr, true
		}
	}
	return telemetry.Drone{}, false
}

// TelemetrySnapshot synthesizes the current reading for every drone without
// advancing any state.
func (d *Driver) TelemetrySnapshot() []telemetry.Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	rows := make([]telemetry.Record, 0, len(d.drones))
	for _, dr := range d.drones {
		rows = append(rows, d.gen.LivePoint(dr, now))
	}
	return rows
}
