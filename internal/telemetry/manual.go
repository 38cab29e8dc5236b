package telemetry

import "time"

// ManualPoint synthesizes the record the admin surface appends when an
// operator pins a status. Ranges are keyed by the literal status label and
// cover the full ten-label vocabulary, not just the phase-driven subset. The
// In-Flight bands here differ from the live path: a pinned status carries no
// mission profile to scale against.
func (g *Generator) ManualPoint(droneID string, status Status, pos Position, battery float64, now time.Time) Record {
	var speed, alt, temp float64
	switch status {
	case StatusPoweredOff:
		temp = g.between(22, 28)
	case StatusStandby:
		temp = g.between(26, 31)
	case StatusPreFlight:
		temp = g.between(29, 34)
	case StatusActive:
		speed = g.between(20, 45)
		alt = g.between(30, 80)
		temp = g.between(33, 39)
	case StatusInFlight:
		speed = g.between(45, 80)
		alt = g.between(90, 130)
		temp = g.between(36, 43)
	case StatusLanding:
		speed = g.between(5, 20)
		alt = g.between(2, 30)
		temp = g.between(33, 39)
	case StatusDelivered:
		speed = g.between(0, 5)
		alt = g.between(0, 10)
		temp = g.between(32, 37)
	case StatusReturning:
		speed = g.between(30, 60)
		alt = g.between(90, 130)
		temp = g.between(34, 40)
	case StatusMaintenance:
		temp = g.between(24, 30)
	case StatusEmergency:
		speed = g.between(0, 70)
		alt = g.between(0, 120)
		temp = g.between(40, 48)
	}

	return g.finish(Record{
		DroneID:      droneID,
		Battery:      battery,
		TemperatureC: temp + tempOffset(now),
		SpeedKmh:     speed,
		AltitudeM:    alt,
		Lat:          pos.Lat,
		Lng:          pos.Lng,
		Status:       status,
		Timestamp:    now,
	}, now)
}
