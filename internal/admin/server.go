// Admin control surface: fleet overview and manual status overrides
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/PepelaJohn/luna-app-telemetry/internal/logging"
	"github.com/PepelaJohn/luna-app-telemetry/internal/override"
	"github.com/PepelaJohn/luna-app-telemetry/internal/sim"
	"github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"
)

//go:embed templates/index.html
var content embed.FS

// Server exposes the admin HTTP surface. It shares the override registry
// with the driver and appends manual records to the same store.
type Server struct {
	driver    *sim.Driver
	overrides *override.Registry
	store     sim.TelemetryStore
	gen       *telemetry.Generator
	tpl       *template.Template
}

// NewServer creates the admin server over an existing driver, registry, and
// store.
func NewServer(driver *sim.Driver, overrides *override.Registry, store sim.TelemetryStore) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{
		driver:    driver,
		overrides: overrides,
		store:     store,
		gen:       telemetry.NewGenerator(nil),
		tpl:       tpl,
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/telemetry", s.handleTelemetry)
	mux.HandleFunc("/override", s.handleOverride)
	mux.HandleFunc("/override/clear", s.handleClearOverride)
	return mux
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Status    sim.DriverStatus
		Overrides map[string]override.Entry
		Statuses  []telemetry.Status
	}{
		Status:    s.driver.Status(),
		Overrides: s.overrides.Snapshot(),
		Statuses:  telemetry.Statuses,
	}
	_ = s.tpl.Execute(w, data)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.driver.Status())
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.driver.TelemetrySnapshot())
}

type overrideRequest struct {
	DroneID         string   `json:"drone_id"`
	Status          string   `json:"status"`
	DurationMinutes int      `json:"duration_minutes"`
	Battery         *float64 `json:"battery"`
}

type overrideResponse struct {
	DroneID string           `json:"drone_id"`
	Entry   override.Entry   `json:"entry"`
	Record  telemetry.Record `json:"record"`
}

// handleOverride pins a manual status on a drone for a bounded duration.
// The status label must be one of the recognized ten; the pin suppresses the
// automatic simulation for that drone until it expires or is cleared.
func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	log := logging.FromContext(r.Context())

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	status, err := telemetry.ParseStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	profile, ok := s.driver.Drone(req.DroneID)
	if !ok {
		http.Error(w, "unknown drone", http.StatusNotFound)
		return
	}

	duration := override.DefaultDuration
	if req.DurationMinutes > 0 {
		duration = time.Duration(req.DurationMinutes) * time.Minute
	}
	now := time.Now()
	expiry := now.Add(duration)

	// Seed last-known context from the most recent stored record, falling
	// back to the live profile.
	pos := profile.Position
	battery := profile.Battery
	if last, found, err := s.store.Latest(r.Context(), req.DroneID); err != nil {
		log.Warn("latest record lookup failed", "drone_id", req.DroneID, "err", err)
	} else if found {
		pos = telemetry.Position{Lat: last.Lat, Lng: last.Lng}
		battery = last.Battery
	}
	if req.Battery != nil {
		battery = *req.Battery
	}

	entry := override.Entry{
		Status:         status,
		Online:         status != telemetry.StatusPoweredOff,
		Battery:        &battery,
		ManualOverride: true,
		ExpiresAt:      &expiry,
		LastPosition:   &pos,
	}
	s.overrides.Set(req.DroneID, entry)

	// The admin surface emits its own record reflecting the manual change,
	// independent of the (now suppressed) simulator path.
	rec := s.gen.ManualPoint(req.DroneID, status, pos, battery, now)
	if err := s.store.Write(rec); err != nil {
		log.Error("manual record append failed", "drone_id", req.DroneID, "err", err)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(overrideResponse{
		DroneID: req.DroneID,
		Entry:   entry,
		Record:  rec,
	})
}

type clearRequest struct {
	DroneID string `json:"drone_id"`
}

func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.overrides.Clear(req.DroneID)
	w.WriteHeader(http.StatusNoContent)
}
