// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"
)

// DroneConfig defines one drone's static profile.
type DroneConfig struct {
	ID                 string  `yaml:"id"`
	Name               string  `yaml:"name"`
	BaseLat            float64 `yaml:"base_lat"`
	BaseLng            float64 `yaml:"base_lng"`
	BatteryDecayRate   float64 `yaml:"battery_decay_rate"`
	MaxSpeedKmh        float64 `yaml:"max_speed_kmh"`
	OperatingAltitudeM float64 `yaml:"operating_altitude_m"`
}

// SimulationConfig is the root configuration: the drone fleet, the fixed
// delivery sites, and driver timing.
type SimulationConfig struct {
	Drones          []DroneConfig    `yaml:"drones"`
	Sites           []telemetry.Site `yaml:"sites"`
	RawTickInterval string           `yaml:"tick_interval"`
	BackfillHours   int              `yaml:"backfill_hours"`

	// TickInterval is parsed from RawTickInterval during Load.
	TickInterval time.Duration `yaml:"-"`
}

// Load validates the YAML config against the CUE schema, unmarshals it, and
// applies defaults.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *SimulationConfig) normalize() error {
	if len(c.Drones) == 0 {
		return fmt.Errorf("no drones defined in the configuration")
	}
	if len(c.Sites) == 0 {
		return fmt.Errorf("no delivery sites defined in the configuration")
	}
	if c.RawTickInterval != "" {
		d, err := time.ParseDuration(c.RawTickInterval)
		if err != nil {
			return fmt.Errorf("invalid tick_interval: %w", err)
		}
		c.TickInterval = d
	}
	for i := range c.Drones {
		d := &c.Drones[i]
		if d.ID == "" {
			d.ID = generateDroneID(d.Name, i)
		}
		if d.Name == "" {
			d.Name = d.ID
		}
	}
	return nil
}

func generateDroneID(name string, index int) string {
	// Include the drone's index along with a UUID to guarantee uniqueness.
	prefix := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	if prefix == "" {
		prefix = "drone"
	}
	return fmt.Sprintf("%s-%d-%s", prefix, index, uuid.New().String())
}
