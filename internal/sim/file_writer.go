package sim

import (
	"encoding/json"
	"os"
)

// FileWriter writes telemetry and detection data to JSONL files.
type FileWriter struct {
	teleFile *os.File
	detFile  *os.File
	teleEnc  *json.Encoder
	detEnc   *json.Encoder
}

// NewFileWriter creates a FileWriter. detectionPath may be empty to skip
// the detection log.
func NewFileWriter(telemetryPath, detectionPath string) (*FileWriter, error) {
	tf, err := os.Create(telemetryPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{teleFile: tf, teleEnc: json.NewEncoder(tf)}
	if detectionPath != "" {
		df, err := os.Create(detectionPath)
		if err != nil {
			tf.Close()
			return nil, err
		}
		fw.detFile = df
		fw.detEnc = json.NewEncoder(df)
	}
	return fw, nil
}

// Write appends a telemetry row to the telemetry log.
func (fw *FileWriter) Write(row TelemetryRow) error {
	return fw.teleEnc.Encode(row)
}

// WriteBatch appends multiple telemetry rows.
func (fw *FileWriter) WriteBatch(rows []TelemetryRow) error {
	for _, r := range rows {
		if err := fw.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteDetection appends a detection row to the detection log.
func (fw *FileWriter) WriteDetection(d DetectionRow) error {
	if fw.detEnc == nil {
		return nil
	}
	return fw.detEnc.Encode(d)
}

// WriteDetections appends multiple detection rows.
func (fw *FileWriter) WriteDetections(rows []DetectionRow) error {
	for _, d := range rows {
		if err := fw.WriteDetection(d); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying files.
func (fw *FileWriter) Close() error {
	err := fw.teleFile.Close()
	if fw.detFile != nil {
		if cerr := fw.detFile.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
