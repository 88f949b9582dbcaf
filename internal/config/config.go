// YAML config loader with CUE validation and env overrides.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DashboardConfig holds settings for the terminal dashboard.
type DashboardConfig struct {
	BaseURL               string `yaml:"base_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	ConnectionPollSeconds int    `yaml:"connection_poll_seconds"`
	DronePollSeconds      int    `yaml:"drone_poll_seconds"`
}

// Timeout returns the per-request HTTP timeout.
func (c DashboardConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ConnInterval returns the connection-status polling interval.
func (c DashboardConfig) ConnInterval() time.Duration {
	return time.Duration(c.ConnectionPollSeconds) * time.Second
}

// DroneInterval returns the drone-status polling interval.
func (c DashboardConfig) DroneInterval() time.Duration {
	return time.Duration(c.DronePollSeconds) * time.Second
}

// SimulatorConfig holds settings for the simulated drone backend.
type SimulatorConfig struct {
	ListenAddr          string  `yaml:"listen_addr"`
	DroneID             string  `yaml:"drone_id"`
	TickMillis          int     `yaml:"tick_ms"`
	ConnectLatencyMS    int     `yaml:"connect_latency_ms"`
	ConnectFailureRate  float64 `yaml:"connect_failure_rate"`
	ReadyDelayTicks     int     `yaml:"ready_delay_ticks"`
	DetectionRate       float64 `yaml:"detection_rate"`
	BatteryDrainRate    float64 `yaml:"battery_drain_rate"`
	ReturnHomeTicks     int     `yaml:"return_home_ticks"`
	SummaryCacheSeconds int     `yaml:"summary_cache_seconds"`
}

// Tick returns the simulator tick interval.
func (c SimulatorConfig) Tick() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}

// ConnectLatency returns the simulated SSH handshake delay.
func (c SimulatorConfig) ConnectLatency() time.Duration {
	return time.Duration(c.ConnectLatencyMS) * time.Millisecond
}

// Config is the root configuration for both executables.
type Config struct {
	Dashboard DashboardConfig `yaml:"dashboard"`
	Simulator SimulatorConfig `yaml:"simulator"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Dashboard: DashboardConfig{
			BaseURL:               "http://localhost:5000",
			RequestTimeoutSeconds: 10,
			ConnectionPollSeconds: 3,
			DronePollSeconds:      2,
		},
		Simulator: SimulatorConfig{
			ListenAddr:          ":5000",
			DroneID:             "scarecrow-01",
			TickMillis:          1000,
			ConnectLatencyMS:    800,
			ConnectFailureRate:  0.1,
			ReadyDelayTicks:     2,
			DetectionRate:       0.25,
			BatteryDrainRate:    0.4,
			ReturnHomeTicks:     3,
			SummaryCacheSeconds: 300,
		},
	}
}

// Load reads configPath, validates it against the CUE schema at schemaPath,
// and applies environment overrides. An empty configPath yields defaults
// (still subject to env overrides). A .env file is honored when present.
func Load(configPath, schemaPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if configPath != "" {
		if schemaPath != "" {
			if err := ValidateWithCue(configPath, schemaPath); err != nil {
				return nil, err
			}
		}
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SCARECROW_API_URL"); v != "" {
		cfg.Dashboard.BaseURL = v
	}
	if v := os.Getenv("SCARECROW_LISTEN_ADDR"); v != "" {
		cfg.Simulator.ListenAddr = v
	}
	if v := os.Getenv("SCARECROW_DRONE_ID"); v != "" {
		cfg.Simulator.DroneID = v
	}
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Simulator.TickMillis = int(d.Milliseconds())
		}
	}
}
