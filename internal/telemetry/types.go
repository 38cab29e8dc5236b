// Telemetry record and drone profile types with greptime tags
package telemetry

import (
	"fmt"
	"os"
	"time"
)

// Status is the human-facing display label carried on telemetry records.
// It is distinct from the internal mission Phase: the simulator only emits a
// subset of these, the manual-override path may pin any of them.
type Status string

const (
	StatusPoweredOff  Status = "Powered Off"
	StatusStandby     Status = "Standby"
	StatusPreFlight   Status = "Pre-Flight"
	StatusActive      Status = "Active"
	StatusInFlight    Status = "In Flight"
	StatusLanding     Status = "Landing"
	StatusDelivered   Status = "Delivered"
	StatusReturning   Status = "Returning"
	StatusMaintenance Status = "Maintenance"
	StatusEmergency   Status = "Emergency"
)

// Statuses lists every recognized display status.
var Statuses = []Status{
	StatusPoweredOff,
	StatusStandby,
	StatusPreFlight,
	StatusActive,
	StatusInFlight,
	StatusLanding,
	StatusDelivered,
	StatusReturning,
	StatusMaintenance,
	StatusEmergency,
}

// ParseStatus validates a status label at the admin boundary.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Phase is the internal mission state of a drone.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePreparing  Phase = "preparing"
	PhaseFlying     Phase = "flying"
	PhaseDelivering Phase = "delivering"
	PhaseReturning  Phase = "returning"
)

// Position holds latitude and longitude in degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Site is a named delivery destination.
type Site struct {
	Name string  `json:"name" yaml:"name"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lng  float64 `json:"lng" yaml:"lng"`
}

// Drone holds per-drone simulation state. Owned by the driver; mutated only
// inside its tick.
type Drone struct {
	ID                 string
	Name               string
	Base               Position
	BatteryDecayRate   float64
	MaxSpeedKmh        float64
	OperatingAltitudeM float64

	Battery      float64
	Position     Position
	Phase        Phase
	MissionStart *time.Time
	Destination  *Site
}

// Record is one telemetry reading for a drone. Records are append-only; the
// store never updates or deletes them.
type Record struct {
	DroneID      string    `json:"drone_id"`    // TAG
	Battery      float64   `json:"battery"`     // FIELD, 0-100
	TemperatureC float64   `json:"temperature"` // FIELD, °C
	Humidity     float64   `json:"humidity"`    // FIELD, 0-100
	SpeedKmh     float64   `json:"speed"`       // FIELD, >= 0
	AltitudeM    float64   `json:"altitude"`    // FIELD, >= 0
	Lat          float64   `json:"lat"`         // FIELD
	Lng          float64   `json:"lng"`         // FIELD
	Status       Status    `json:"status"`      // FIELD
	Timestamp    time.Time `json:"ts"`          // TIME INDEX
}

// TableName holds the table name used when writing to GreptimeDB. It
// defaults to "delivery_telemetry" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var TableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "delivery_telemetry"
}()

func (Record) TableName() string {
	return TableName
}

// Rand is the seedable randomness source behind every probabilistic decision
// in the simulator. *math/rand.Rand satisfies it; tests may script it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}
