package main

import (
	"log/slog"
	"os"

	"scarecrow-ops/internal/sim"
)

// newWriters sets up telemetry and detection writers based on flags and env
// vars. It returns the writers and a cleanup function to close any resources.
func newWriters(printOnly bool, logFile string, log *slog.Logger) (sim.TelemetryWriter, sim.DetectionWriter, func(), error) {
	cleanup := func() {}

	writer, detectWriter, err := baseWriters(printOnly, log)
	if err != nil {
		return nil, nil, nil, err
	}
	if logFile == "" {
		return writer, detectWriter, cleanup, nil
	}

	fw, err := sim.NewFileWriter(logFile, logFile+".detections")
	if err != nil {
		return nil, nil, nil, err
	}
	mw := sim.NewMultiWriter(
		[]sim.TelemetryWriter{writer, fw},
		[]sim.DetectionWriter{detectWriter, fw},
	)
	cleanup = func() { fw.Close() }
	return mw, mw, cleanup, nil
}

// baseWriters chooses the underlying writers based on the printOnly flag and
// the GREPTIMEDB_ENDPOINT env var.
func baseWriters(printOnly bool, log *slog.Logger) (sim.TelemetryWriter, sim.DetectionWriter, error) {
	if printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		sw := &sim.StdoutWriter{}
		return sw, sw, nil
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	teleTable := os.Getenv("GREPTIMEDB_TABLE")
	detTable := os.Getenv("DETECTION_TABLE")
	w, err := sim.NewGreptimeDBWriter(endpoint, teleTable, detTable, log)
	if err != nil {
		return nil, nil, err
	}
	return w, w, nil
}
