package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Valid(t *testing.T) {
	dir := t.TempDir()
	tmpFile := filepath.Join(dir, "scarecrow.yaml")
	yaml := `
dashboard:
  base_url: http://drone.local:5000
  connection_poll_seconds: 5
simulator:
  drone_id: bench-drone
`
	if err := os.WriteFile(tmpFile, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(tmpFile, "../../schemas/scarecrow.cue")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Dashboard.BaseURL != "http://drone.local:5000" {
		t.Errorf("base_url = %q", cfg.Dashboard.BaseURL)
	}
	if cfg.Dashboard.ConnectionPollSeconds != 5 {
		t.Errorf("connection_poll_seconds = %d", cfg.Dashboard.ConnectionPollSeconds)
	}
	// unset fields keep defaults
	if cfg.Dashboard.DronePollSeconds != 2 {
		t.Errorf("drone_poll_seconds = %d, want default 2", cfg.Dashboard.DronePollSeconds)
	}
	if cfg.Simulator.DroneID != "bench-drone" {
		t.Errorf("drone_id = %q", cfg.Simulator.DroneID)
	}
}

func TestLoadConfig_SchemaViolation(t *testing.T) {
	dir := t.TempDir()
	tmpFile := filepath.Join(dir, "scarecrow.yaml")
	yaml := `
dashboard:
  connection_poll_seconds: -3
`
	if err := os.WriteFile(tmpFile, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	if _, err := Load(tmpFile, "../../schemas/scarecrow.cue"); err == nil {
		t.Fatal("expected schema validation error for negative poll interval")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SCARECROW_API_URL", "http://10.0.0.7:5000")
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Dashboard.BaseURL != "http://10.0.0.7:5000" {
		t.Errorf("base_url = %q, want env override", cfg.Dashboard.BaseURL)
	}
}
