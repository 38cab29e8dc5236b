package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const schemaPath = "../../schemas/simulation.cue"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simulation.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validYAML = `
drones:
  - id: luna-001
    name: Luna Alpha
    base_lat: -1.2921
    base_lng: 36.8219
    battery_decay_rate: 0.5
    max_speed_kmh: 65
    operating_altitude_m: 120

sites:
  - name: Westlands Clinic
    lat: -1.2673
    lng: 36.8060

tick_interval: 5s
backfill_hours: 24
`

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML), schemaPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Drones) != 1 || cfg.Drones[0].ID != "luna-001" {
		t.Errorf("drones = %+v", cfg.Drones)
	}
	if cfg.Drones[0].MaxSpeedKmh != 65 || cfg.Drones[0].OperatingAltitudeM != 120 {
		t.Errorf("drone profile = %+v", cfg.Drones[0])
	}
	if len(cfg.Sites) != 1 || cfg.Sites[0].Name != "Westlands Clinic" {
		t.Errorf("sites = %+v", cfg.Sites)
	}
	if cfg.TickInterval != 5*time.Second {
		t.Errorf("tick interval = %v, want 5s", cfg.TickInterval)
	}
	if cfg.BackfillHours != 24 {
		t.Errorf("backfill hours = %d, want 24", cfg.BackfillHours)
	}
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load("../../config/simulation.yaml", schemaPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Drones) == 0 || len(cfg.Sites) == 0 {
		t.Errorf("shipped config incomplete: %d drones, %d sites", len(cfg.Drones), len(cfg.Sites))
	}
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	bad := strings.Replace(validYAML, "battery_decay_rate: 0.5", "battery_decay_rate: 10", 1)
	if _, err := Load(writeConfig(t, bad), schemaPath); err == nil {
		t.Errorf("decay rate 10 should fail schema validation")
	}

	bad = strings.Replace(validYAML, "base_lat: -1.2921", "base_lat: -100", 1)
	if _, err := Load(writeConfig(t, bad), schemaPath); err == nil {
		t.Errorf("latitude -100 should fail schema validation")
	}
}

func TestLoadGeneratesMissingIDs(t *testing.T) {
	body := strings.Replace(validYAML, "  - id: luna-001\n    name: Luna Alpha",
		"  - name: Luna Alpha", 1)
	cfg, err := Load(writeConfig(t, body), schemaPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	id := cfg.Drones[0].ID
	if id == "" {
		t.Fatalf("missing id not generated")
	}
	if !strings.HasPrefix(id, "luna-alpha-0-") {
		t.Errorf("generated id %q missing name/index prefix", id)
	}
}

func TestLoadRejectsEmptyFleet(t *testing.T) {
	body := `
drones: []
sites:
  - name: Westlands Clinic
    lat: -1.2673
    lng: 36.8060
`
	if _, err := Load(writeConfig(t, body), schemaPath); err == nil {
		t.Errorf("empty fleet should be rejected")
	}
}

func TestLoadRejectsEmptySites(t *testing.T) {
	body := strings.Replace(validYAML, `sites:
  - name: Westlands Clinic
    lat: -1.2673
    lng: 36.8060`, "sites: []", 1)
	if _, err := Load(writeConfig(t, body), schemaPath); err == nil {
		t.Errorf("empty site list should be rejected")
	}
}

func TestLoadRejectsBadTickInterval(t *testing.T) {
	bad := strings.Replace(validYAML, "tick_interval: 5s", "tick_interval: soon", 1)
	if _, err := Load(writeConfig(t, bad), schemaPath); err == nil {
		t.Errorf("unparseable tick_interval should be rejected")
	}
}

func TestLoadMissingFiles(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), schemaPath); err == nil {
		t.Errorf("missing config should fail")
	}
	if _, err := Load(writeConfig(t, validYAML), filepath.Join(t.TempDir(), "absent.cue")); err == nil {
		t.Errorf("missing schema should fail")
	}
}
