// Sensor value synthesis for historical backfill and live ticks
package telemetry

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Historical backfill activity probabilities.
const (
	historicalActiveBusinessP = 0.6
	historicalActiveOffHoursP = 0.2
	positionJitterDeg         = 0.04
)

// Time-of-day adjustments. Temperature follows a sinusoid peaking
// mid-afternoon; the humidity baseline falls off with distance from 14:00.
const (
	tempSwingC        = 3.0
	tempPeakShiftH    = 9.0
	humidityBase      = 72.0
	humidityPerHour   = 1.5
	humidityPeakHour  = 14.0
	humidityNoiseSpan = 5.0
)

// historicalStatuses are the labels a randomized backfill point may carry.
var historicalStatuses = []Status{
	StatusStandby,
	StatusActive,
	StatusInFlight,
	StatusDelivered,
	StatusReturning,
}

// Generator synthesizes telemetry records for drone profiles. All randomness
// flows through a single Rand source so output is reproducible under a
// seeded *rand.Rand. Draws are serialized by a mutex: the admin surface
// synthesizes manual points from concurrent handler goroutines.
type Generator struct {
	mu  sync.Mutex
	rng Rand
}

// NewGenerator creates a Generator. A nil rng falls back to a time-seeded
// source.
func NewGenerator(rng Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// BusinessHours reports whether t falls inside delivery operating hours.
func BusinessHours(t time.Time) bool {
	h := t.Hour()
	return h >= 8 && h < 18
}

// HistoricalPoint synthesizes one backfill reading for d at ts. Whether the
// drone looks active is a Bernoulli draw weighted by business hours on
// weekdays.
func (g *Generator) HistoricalPoint(d *Drone, ts time.Time) Record {
	activeP := historicalActiveOffHoursP
	wd := ts.Weekday()
	if BusinessHours(ts) && wd != time.Saturday && wd != time.Sunday {
		activeP = historicalActiveBusinessP
	}

	if g.float64() >= activeP {
		// Inactive: standby reading at base.
		return g.finish(Record{
			DroneID:      d.ID,
			Battery:      g.between(70, 100),
			TemperatureC: g.between(26, 32) + tempOffset(ts),
			SpeedKmh:     0,
			AltitudeM:    0,
			Lat:          d.Base.Lat,
			Lng:          d.Base.Lng,
			Status:       StatusStandby,
			Timestamp:    ts,
		}, ts)
	}

	// Mid-mission-like values; battery biased by how far along the mission is.
	progress := g.float64()
	return g.finish(Record{
		DroneID:      d.ID,
		Battery:      100 - progress*50,
		TemperatureC: g.between(32, 44),
		SpeedKmh:     d.MaxSpeedKmh * g.between(0.6, 1.0),
		AltitudeM:    d.OperatingAltitudeM + g.between(-15, 15),
		Lat:          d.Base.Lat + g.between(-positionJitterDeg, positionJitterDeg),
		Lng:          d.Base.Lng + g.between(-positionJitterDeg, positionJitterDeg),
		Status:       historicalStatuses[g.intn(len(historicalStatuses))],
		Timestamp:    ts,
	}, ts)
}

// LivePoint synthesizes one reading from the drone's current simulated
// state. The mission phase selects the display status and the value ranges.
func (g *Generator) LivePoint(d *Drone, now time.Time) Record {
	var (
		status Status
		speed  float64
		alt    float64
		temp   float64
	)
	switch d.Phase {
	case PhasePreparing:
		status = StatusPreFlight
		temp = g.between(30, 35)
	case PhaseFlying:
		status = StatusInFlight
		speed = d.MaxSpeedKmh * g.between(0.8, 1.0)
		alt = d.OperatingAltitudeM + g.between(-15, 15)
		temp = g.between(35, 41)
	case PhaseDelivering:
		status = StatusDelivered
		speed = g.between(0, 5)
		alt = g.between(5, 15)
		temp = g.between(33, 38)
	case PhaseReturning:
		status = StatusReturning
		speed = d.MaxSpeedKmh * g.between(0.7, 0.95)
		alt = d.OperatingAltitudeM + g.between(-15, 15)
		temp = g.between(34, 40)
	default: // idle
		status = StatusStandby
		temp = g.between(26, 32)
	}

	return g.finish(Record{
		DroneID:      d.ID,
		Battery:      d.Battery,
		TemperatureC: temp + tempOffset(now),
		SpeedKmh:     speed,
		AltitudeM:    alt,
		Lat:          d.Position.Lat,
		Lng:          d.Position.Lng,
		Status:       status,
		Timestamp:    now,
	}, now)
}

// finish applies humidity, domain clamps, and rounding. The generator, not
// the caller, is responsible for keeping every field inside its domain.
func (g *Generator) finish(r Record, ts time.Time) Record {
	r.Battery = round1(clamp(r.Battery, 0, 100))
	r.TemperatureC = round1(r.TemperatureC)
	r.Humidity = round1(clamp(g.humidity(ts), 0, 100))
	r.SpeedKmh = round1(math.Max(0, r.SpeedKmh))
	r.AltitudeM = math.Round(math.Max(0, r.AltitudeM))
	r.Lat = roundPos(clamp(r.Lat, -90, 90))
	r.Lng = roundPos(clamp(r.Lng, -180, 180))
	return r
}

func (g *Generator) between(lo, hi float64) float64 {
	return lo + g.float64()*(hi-lo)
}

func (g *Generator) float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

func (g *Generator) humidity(t time.Time) float64 {
	h := float64(t.Hour()) + float64(t.Minute())/60
	base := humidityBase - humidityPerHour*math.Abs(h-humidityPeakHour)
	return base + g.between(-humidityNoiseSpan, humidityNoiseSpan)
}

func tempOffset(t time.Time) float64 {
	h := float64(t.Hour()) + float64(t.Minute())/60
	return tempSwingC * math.Sin(2*math.Pi*(h-tempPeakShiftH)/24)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// roundPos rounds coordinates to six decimal places, roughly 0.1m.
func roundPos(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
