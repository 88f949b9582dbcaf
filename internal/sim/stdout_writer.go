// Writer implementation printing telemetry to STDOUT
package sim

import (
	"encoding/json"
	"fmt"
)

// StdoutWriter prints telemetry rows to STDOUT as JSON lines.
type StdoutWriter struct{}

// Write outputs a single telemetry row.
func (w *StdoutWriter) Write(row TelemetryRow) error {
	data, _ := json.Marshal(row)
	fmt.Println(string(data))
	return nil
}

// WriteBatch outputs multiple telemetry rows.
func (w *StdoutWriter) WriteBatch(rows []TelemetryRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteDetection prints a pigeon detection event to STDOUT.
func (w *StdoutWriter) WriteDetection(d DetectionRow) error {
	data, _ := json.Marshal(d)
	fmt.Println(string(data))
	return nil
}

// WriteDetections prints multiple detection events.
func (w *StdoutWriter) WriteDetections(rows []DetectionRow) error {
	for _, d := range rows {
		_ = w.WriteDetection(d)
	}
	return nil
}
