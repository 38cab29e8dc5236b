// Per-drone mission state machine driving delivery flights
package mission

import (
	"math/rand"
	"time"

	"github.com/PepelaJohn/luna-app-telemetry/internal/geo"
	"github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"
)

// StepSeconds is the amount of simulated travel time one tick represents,
// independent of the wall-clock driver interval.
const StepSeconds = 20

// Transition thresholds and battery dynamics. One tick evaluates exactly one
// row of the transition table per drone.
const (
	LaunchProbability       = 0.10
	TakeoffProbability      = 0.5
	ArrivalProbability      = 0.08
	DeliveryDoneProbability = 0.3
	ReturnHomeProbability   = 0.12

	ArrivalDistanceDeg = 0.005
	HomeDistanceDeg    = 0.002

	LaunchBatteryMin     = 50.0
	IdleRechargePerTick  = 0.3
	FlyingDecayFactor    = 0.8
	ReturningDecayFactor = 0.6
	DeliveringDrain      = 0.2

	// BatteryFloor is applied after every step; the simulator never
	// synthesizes a dead battery.
	BatteryFloor = 15.0
)

// Engine advances drone mission phases. It holds the fixed destination list
// and the shared randomness source; per-drone state lives on the Drone.
type Engine struct {
	sites []telemetry.Site
	rng   telemetry.Rand
}

// NewEngine creates an Engine over the configured delivery sites. A nil rng
// falls back to a time-seeded source.
func NewEngine(sites []telemetry.Site, rng telemetry.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{sites: sites, rng: rng}
}

// Step advances d by one tick. now is the simulated wall clock used for
// business-hours gating and mission start stamps.
func (e *Engine) Step(d *telemetry.Drone, now time.Time) {
	switch d.Phase {
	case telemetry.PhaseIdle:
		e.stepIdle(d, now)
	case telemetry.PhasePreparing:
		if e.rng.Float64() < TakeoffProbability {
			d.Phase = telemetry.PhaseFlying
		}
	case telemetry.PhaseFlying:
		e.stepFlying(d)
	case telemetry.PhaseDelivering:
		d.Battery -= DeliveringDrain
		if e.rng.Float64() < DeliveryDoneProbability {
			d.Phase = telemetry.PhaseReturning
		}
	case telemetry.PhaseReturning:
		e.stepReturning(d)
	}

	if d.Battery < BatteryFloor {
		d.Battery = BatteryFloor
	}
}

func (e *Engine) stepIdle(d *telemetry.Drone, now time.Time) {
	if telemetry.BusinessHours(now) && e.rng.Float64() < LaunchProbability &&
		d.Battery > LaunchBatteryMin && len(e.sites) > 0 {
		site := e.sites[e.rng.Intn(len(e.sites))]
		d.Destination = &site
		start := now
		d.MissionStart = &start
		d.Phase = telemetry.PhasePreparing
		return
	}
	d.Battery += IdleRechargePerTick
	if d.Battery > 100 {
		d.Battery = 100
	}
}

func (e *Engine) stepFlying(d *telemetry.Drone) {
	dest := d.Destination
	if dest == nil {
		// Malformed profile; the driver skips these before stepping.
		return
	}
	step := geo.StepDegrees(d.MaxSpeedKmh, StepSeconds)
	d.Position.Lat, d.Position.Lng = geo.MoveToward(
		d.Position.Lat, d.Position.Lng, dest.Lat, dest.Lng, step)
	d.Battery -= d.BatteryDecayRate * FlyingDecayFactor

	remaining := geo.Distance(d.Position.Lat, d.Position.Lng, dest.Lat, dest.Lng)
	if remaining < ArrivalDistanceDeg || e.rng.Float64() < ArrivalProbability {
		d.Phase = telemetry.PhaseDelivering
	}
}

func (e *Engine) stepReturning(d *telemetry.Drone) {
	step := geo.StepDegrees(d.MaxSpeedKmh, StepSeconds)
	d.Position.Lat, d.Position.Lng = geo.MoveToward(
		d.Position.Lat, d.Position.Lng, d.Base.Lat, d.Base.Lng, step)
	d.Battery -= d.BatteryDecayRate * ReturningDecayFactor

	remaining := geo.Distance(d.Position.Lat, d.Position.Lng, d.Base.Lat, d.Base.Lng)
	if remaining < HomeDistanceDeg || e.rng.Float64() < ReturnHomeProbability {
		// Snap to base exactly; the mission is over.
		d.Position = d.Base
		d.Destination = nil
		d.MissionStart = nil
		d.Phase = telemetry.PhaseIdle
	}
}
