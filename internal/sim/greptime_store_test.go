package sim

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"
)

type mockIngesterClient struct {
	tables   []*table.Table
	queries  []string
	rows     []map[string]any
	writeErr error
	sqlErr   error
}

func (m *mockIngesterClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	m.tables = append(m.tables, tables...)
	return &gpb.GreptimeResponse{}, nil
}

func (m *mockIngesterClient) SQL(ctx context.Context, sql string) ([]map[string]any, error) {
	m.queries = append(m.queries, sql)
	if m.sqlErr != nil {
		return nil, m.sqlErr
	}
	return m.rows, nil
}

func testRecord(id string, ts time.Time) telemetry.Record {
	return telemetry.Record{
		DroneID:      id,
		Battery:      87.5,
		TemperatureC: 36.2,
		Humidity:     61.0,
		SpeedKmh:     58.3,
		AltitudeM:    120,
		Lat:          -1.2921,
		Lng:          36.8219,
		Status:       telemetry.StatusInFlight,
		Timestamp:    ts,
	}
}

func TestGreptimeWriteBatch(t *testing.T) {
	mock := &mockIngesterClient{}
	store := &GreptimeStore{client: mock, table: "delivery_telemetry"}

	ts := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	err := store.WriteBatch([]telemetry.Record{
		testRecord("luna-001", ts),
		testRecord("luna-002", ts.Add(5*time.Second)),
	})
	if err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if len(mock.tables) != 1 {
		t.Errorf("batch issued %d ingester calls, want 1", len(mock.tables))
	}
}

func TestGreptimeWriteBatchEmpty(t *testing.T) {
	mock := &mockIngesterClient{}
	store := &GreptimeStore{client: mock, table: "delivery_telemetry"}

	if err := store.WriteBatch(nil); err != nil {
		t.Fatalf("WriteBatch(nil): %v", err)
	}
	if len(mock.tables) != 0 {
		t.Errorf("empty batch should not reach the ingester")
	}
}

func TestGreptimeWriteError(t *testing.T) {
	mock := &mockIngesterClient{writeErr: errors.New("unavailable")}
	store := &GreptimeStore{client: mock, table: "delivery_telemetry"}

	if err := store.Write(testRecord("luna-001", time.Now())); err == nil {
		t.Errorf("expected write error to propagate")
	}
}

func TestGreptimeCount(t *testing.T) {
	mock := &mockIngesterClient{rows: []map[string]any{{"n": int64(4321)}}}
	store := &GreptimeStore{client: mock, table: "delivery_telemetry"}

	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 4321 {
		t.Errorf("Count = %d, want 4321", n)
	}
	if len(mock.queries) != 1 || !strings.Contains(mock.queries[0], "COUNT(*)") ||
		!strings.Contains(mock.queries[0], "delivery_telemetry") {
		t.Errorf("unexpected query %q", mock.queries)
	}
}

func TestGreptimeCountEmptyAndError(t *testing.T) {
	store := &GreptimeStore{client: &mockIngesterClient{}, table: "delivery_telemetry"}
	n, err := store.Count(context.Background())
	if err != nil || n != 0 {
		t.Errorf("empty result: n=%d err=%v, want 0 nil", n, err)
	}

	store = &GreptimeStore{
		client: &mockIngesterClient{sqlErr: errors.New("unavailable")},
		table:  "delivery_telemetry",
	}
	if _, err := store.Count(context.Background()); err == nil {
		t.Errorf("expected SQL error to propagate")
	}
}

func TestGreptimeLatest(t *testing.T) {
	// Values as the HTTP SQL endpoint decodes them: JSON numbers and the
	// millisecond epoch for the time index.
	ts := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	mock := &mockIngesterClient{rows: []map[string]any{{
		"drone_id":    "luna-001",
		"battery":     87.5,
		"temperature": 36.2,
		"humidity":    61.0,
		"speed":       58.3,
		"altitude":    float64(120),
		"lat":         -1.2921,
		"lng":         36.8219,
		"status":      "In Flight",
		"ts":          float64(ts.UnixMilli()),
	}}}
	store := &GreptimeStore{client: mock, table: "delivery_telemetry"}

	rec, found, err := store.Latest(context.Background(), "luna-001")
	if err != nil || !found {
		t.Fatalf("Latest: found=%v err=%v", found, err)
	}
	if rec.DroneID != "luna-001" || rec.Battery != 87.5 || rec.Status != telemetry.StatusInFlight {
		t.Errorf("unexpected record %+v", rec)
	}
	if !rec.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp, ts)
	}
	if !strings.Contains(mock.queries[0], "drone_id = 'luna-001'") ||
		!strings.Contains(mock.queries[0], "ORDER BY ts DESC LIMIT 1") {
		t.Errorf("unexpected query %q", mock.queries[0])
	}
}

func TestGreptimeLatestMissing(t *testing.T) {
	store := &GreptimeStore{client: &mockIngesterClient{}, table: "delivery_telemetry"}
	_, found, err := store.Latest(context.Background(), "luna-404")
	if err != nil || found {
		t.Errorf("missing drone: found=%v err=%v, want false nil", found, err)
	}
}

func TestGreptimeLatestEscapesID(t *testing.T) {
	mock := &mockIngesterClient{}
	store := &GreptimeStore{client: mock, table: "delivery_telemetry"}

	_, _, err := store.Latest(context.Background(), "luna'; DROP TABLE x --")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if !strings.Contains(mock.queries[0], "luna''; DROP TABLE x --") {
		t.Errorf("id not escaped in query %q", mock.queries[0])
	}
}

func TestGreptimeClientSQL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/sql" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("db"); got != "public" {
			t.Errorf("db = %q, want public", got)
		}
		if err := r.ParseForm(); err != nil || r.Form.Get("sql") == "" {
			t.Errorf("missing sql form field")
		}
		w.Write([]byte(`{"code":0,"output":[{"records":{"schema":{"column_schemas":[{"name":"n","data_type":"Int64"}]},"rows":[[4321]]}}],"execution_time_ms":1}`))
	}))
	defer srv.Close()

	c := &greptimeClient{
		sqlURL:   srv.URL + "/v1/sql",
		database: "public",
		hc:       srv.Client(),
	}
	rows, err := c.SQL(context.Background(), "SELECT COUNT(*) AS n FROM delivery_telemetry")
	if err != nil {
		t.Fatalf("SQL: %v", err)
	}
	if len(rows) != 1 || toInt64(rows[0]["n"]) != 4321 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestGreptimeClientSQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":1004,"error":"table not found"}`))
	}))
	defer srv.Close()

	c := &greptimeClient{sqlURL: srv.URL + "/v1/sql", database: "public", hc: srv.Client()}
	if _, err := c.SQL(context.Background(), "SELECT 1"); err == nil ||
		!strings.Contains(err.Error(), "table not found") {
		t.Errorf("err = %v, want table-not-found", err)
	}
}

func TestToTime(t *testing.T) {
	ts := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	if got := toTime(ts); !got.Equal(ts) {
		t.Errorf("time.Time passthrough = %v", got)
	}
	if got := toTime(float64(ts.UnixMilli())); !got.Equal(ts) {
		t.Errorf("millisecond epoch = %v, want %v", got, ts)
	}
	if got := toTime("not a time"); !got.IsZero() {
		t.Errorf("unknown type = %v, want zero", got)
	}
}
