package sim

import (
	"context"
	"log/slog"
	"net"
	"strconv"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// tableWriter abstracts the ingester client so tests can capture rows.
type tableWriter interface {
	Write(ctx context.Context, tables ...*table.Table) error
}

type greptimeAPI struct {
	cli *greptime.Client
}

func (g greptimeAPI) Write(ctx context.Context, tables ...*table.Table) error {
	_, err := g.cli.Write(ctx, tables...)
	return err
}

// GreptimeDBWriter writes flight telemetry and detections to GreptimeDB.
type GreptimeDBWriter struct {
	client   tableWriter
	table    string
	detTable string
	log      *slog.Logger
}

// NewGreptimeDBWriter creates a GreptimeDB writer against the public
// database. Empty table names fall back to flight_telemetry and
// pigeon_detections. endpoint is "host" or "host:port".
func NewGreptimeDBWriter(endpoint, teleTable, detTable string, log *slog.Logger) (*GreptimeDBWriter, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		host = endpoint
		portStr = ""
	}
	cfg := greptime.NewConfig(host).WithDatabase("public")
	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, err
		}
		cfg = cfg.WithPort(port)
	}

	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if teleTable == "" {
		teleTable = "flight_telemetry"
	}
	if detTable == "" {
		detTable = "pigeon_detections"
	}
	return &GreptimeDBWriter{
		client:   greptimeAPI{cli: client},
		table:    teleTable,
		detTable: detTable,
		log:      log,
	}, nil
}

// Write inserts a single telemetry row.
func (w *GreptimeDBWriter) Write(row TelemetryRow) error {
	return w.WriteBatch([]TelemetryRow{row})
}

// WriteBatch inserts multiple telemetry rows.
func (w *GreptimeDBWriter) WriteBatch(rows []TelemetryRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := telemetryTable(w.table, rows)
	if err != nil {
		return err
	}
	if err := w.client.Write(context.Background(), tbl); err != nil {
		w.log.Error("greptime telemetry write failed", "error", err)
		return err
	}
	return nil
}

// telemetryTable builds the row-insert table. AddRow values follow the
// column declaration order.
func telemetryTable(name string, rows []TelemetryRow) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("drone_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("flight_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("altitude_m", types.FLOAT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("speed_mps", types.FLOAT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("battery", types.FLOAT64); err != nil {
		return nil, err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}

	for _, r := range rows {
		if err := tbl.AddRow(r.DroneID, r.FlightID, r.AltitudeM, r.SpeedMPS, r.Battery, r.Timestamp); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// WriteDetection inserts a single detection row.
func (w *GreptimeDBWriter) WriteDetection(d DetectionRow) error {
	return w.WriteDetections([]DetectionRow{d})
}

// WriteDetections inserts multiple detection rows.
func (w *GreptimeDBWriter) WriteDetections(rows []DetectionRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := detectionTable(w.detTable, rows)
	if err != nil {
		return err
	}
	if err := w.client.Write(context.Background(), tbl); err != nil {
		w.log.Error("greptime detection write failed", "error", err)
		return err
	}
	return nil
}

func detectionTable(name string, rows []DetectionRow) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("drone_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("flight_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("count", types.INT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("confidence", types.FLOAT64); err != nil {
		return nil, err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}

	for _, r := range rows {
		if err := tbl.AddRow(r.DroneID, r.FlightID, int64(r.Count), r.Confidence, r.Timestamp); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}
