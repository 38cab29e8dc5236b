package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"github.com/PepelaJohn/luna-app-telemetry/internal/telemetry"
)

// ingesterClient is the slice of the GreptimeDB surface the store uses;
// tests substitute a mock.
type ingesterClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
	SQL(ctx context.Context, sql string) ([]map[string]any, error)
}

// greptimeClient bridges the two GreptimeDB surfaces: appends go through the
// gRPC ingester, queries through the HTTP /v1/sql endpoint. The ingester
// client exposes no query API.
type greptimeClient struct {
	ingester *greptime.Client
	sqlURL   string
	database string
	hc       *http.Client
}

func (c *greptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	return c.ingester.Write(ctx, tables...)
}

// sqlResponse is the envelope of the HTTP SQL endpoint.
type sqlResponse struct {
	Code   int    `json:"code"`
	Error  string `json:"error"`
	Output []struct {
		Records struct {
			Schema struct {
				ColumnSchemas []struct {
					Name string `json:"name"`
				} `json:"column_schemas"`
			} `json:"schema"`
			Rows [][]any `json:"rows"`
		} `json:"records"`
	} `json:"output"`
}

func (c *greptimeClient) SQL(ctx context.Context, query string) ([]map[string]any, error) {
	form := url.Values{"sql": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.sqlURL+"?db="+url.QueryEscape(c.database), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var parsed sqlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("greptimedb sql: unexpected response %q", string(body))
	}
	if resp.StatusCode != http.StatusOK || parsed.Error != "" {
		return nil, fmt.Errorf("greptimedb sql: %s (http %d)", parsed.Error, resp.StatusCode)
	}

	var rows []map[string]any
	for _, out := range parsed.Output {
		cols := out.Records.Schema.ColumnSchemas
		for _, raw := range out.Records.Rows {
			row := make(map[string]any, len(cols))
			for i, col := range cols {
				if i < len(raw) {
					row[col.Name] = raw[i]
				}
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// GreptimeStore persists telemetry in GreptimeDB.
type GreptimeStore struct {
	client ingesterClient
	table  string
}

// NewGreptimeStore connects to GreptimeDB and auto-creates the telemetry
// table if needed. endpoint is the gRPC ingest address (host:port); httpURL
// is the HTTP API base used for SQL queries, defaulting to port 4000 on the
// same host.
func NewGreptimeStore(endpoint, httpURL, database string) (*GreptimeStore, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		host, portStr = endpoint, "4001"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid greptimedb endpoint %q: %w", endpoint, err)
	}

	ingester, err := greptime.NewClient(
		greptime.NewConfig(host).WithPort(port).WithDatabase(database))
	if err != nil {
		return nil, err
	}

	if httpURL == "" {
		httpURL = fmt.Sprintf("http://%s:4000", host)
	}
	client := &greptimeClient{
		ingester: ingester,
		sqlURL:   strings.TrimRight(httpURL, "/") + "/v1/sql",
		database: database,
		hc:       &http.Client{Timeout: 10 * time.Second},
	}

	tbl := telemetry.TableName
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  drone_id STRING TAG,
  battery DOUBLE,
  temperature DOUBLE,
  humidity DOUBLE,
  speed DOUBLE,
  altitude DOUBLE,
  lat DOUBLE,
  lng DOUBLE,
  status STRING,
  ts TIMESTAMP TIME INDEX
) WITH (ttl='30d')
`, tbl)
	if _, err := client.SQL(context.Background(), ddl); err != nil {
		return nil, err
	}

	return &GreptimeStore{client: client, table: tbl}, nil
}

// Write appends a single telemetry record.
func (s *GreptimeStore) Write(rec telemetry.Record) error {
	return s.WriteBatch([]telemetry.Record{rec})
}

// WriteBatch appends multiple telemetry records in one ingester call.
func (s *GreptimeStore) WriteBatch(recs []telemetry.Record) error {
	if len(recs) == 0 {
		return nil
	}

	tbl, err := table.New(s.table)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("drone_id", types.STRING); err != nil {
		return err
	}
	for _, col := range []string{"battery", "temperature", "humidity", "speed", "altitude", "lat", "lng"} {
		if err := tbl.AddFieldColumn(col, types.FLOAT64); err != nil {
			return err
		}
	}
	if err := tbl.AddFieldColumn("status", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	// Row values follow the column declaration order above.
	for _, r := range recs {
		if err := tbl.AddRow(r.DroneID, r.Battery, r.TemperatureC, r.Humidity,
			r.SpeedKmh, r.AltitudeM, r.Lat, r.Lng, string(r.Status), r.Timestamp); err != nil {
			return err
		}
	}

	_, err = s.client.Write(context.Background(), tbl)
	return err
}

// Count returns the total number of stored records.
func (s *GreptimeStore) Count(ctx context.Context) (int64, error) {
	rows, err := s.client.SQL(ctx, fmt.Sprintf("SELECT COUNT(*) AS n FROM %s", s.table))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["n"]), nil
}

// Latest returns the most recent record for a drone, used to seed override
// context with last known position and battery.
func (s *GreptimeStore) Latest(ctx context.Context, droneID string) (telemetry.Record, bool, error) {
	q := fmt.Sprintf(
		"SELECT drone_id, battery, temperature, humidity, speed, altitude, lat, lng, status, ts FROM %s WHERE drone_id = '%s' ORDER BY ts DESC LIMIT 1",
		s.table, sqlQuote(droneID))
	rows, err := s.client.SQL(ctx, q)
	if err != nil {
		return telemetry.Record{}, false, err
	}
	if len(rows) == 0 {
		return telemetry.Record{}, false, nil
	}

	row := rows[0]
	rec := telemetry.Record{
		DroneID:      toString(row["drone_id"]),
		Battery:      toFloat64(row["battery"]),
		TemperatureC: toFloat64(row["temperature"]),
		Humidity:     toFloat64(row["humidity"]),
		SpeedKmh:     toFloat64(row["speed"]),
		AltitudeM:    toFloat64(row["altitude"]),
		Lat:          toFloat64(row["lat"]),
		Lng:          toFloat64(row["lng"]),
		Status:       telemetry.Status(toString(row["status"])),
		Timestamp:    toTime(row["ts"]),
	}
	return rec, true, nil
}

// sqlQuote escapes a string literal for interpolation into a query; the HTTP
// SQL endpoint takes no bind parameters.
func sqlQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	}
	return 0
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case uint64:
		return int64(x)
	case float64:
		return int64(x)
	}
	return 0
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toTime accepts either a decoded time or the millisecond epoch the HTTP SQL
// endpoint returns for timestamp columns.
func toTime(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case float64:
		return time.UnixMilli(int64(x)).UTC()
	case int64:
		return time.UnixMilli(x).UTC()
	}
	return time.Time{}
}
