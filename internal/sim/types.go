// Simulated drone backend for the scarecrow dashboard.
package sim

import "time"

// TelemetryRow is one in-flight telemetry sample.
type TelemetryRow struct {
	DroneID   string    `json:"drone_id"`  // TAG
	FlightID  string    `json:"flight_id"` // TAG
	AltitudeM float64   `json:"altitude_m"`
	SpeedMPS  float64   `json:"speed_mps"`
	Battery   float64   `json:"battery"`
	Timestamp time.Time `json:"ts"` // TIME INDEX
}

// DetectionRow is one pigeon detection event reported during a flight.
type DetectionRow struct {
	DroneID    string    `json:"drone_id"`
	FlightID   string    `json:"flight_id"`
	Count      int       `json:"count"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"ts"`
}

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(TelemetryRow) error
}

// DetectionWriter handles pigeon detection events.
type DetectionWriter interface {
	WriteDetection(DetectionRow) error
}

// Optional: writers can also support batch mode.
type batchWriter interface {
	WriteBatch([]TelemetryRow) error
}

type batchDetectionWriter interface {
	WriteDetections([]DetectionRow) error
}
