// Wire types shared by the dashboard client and the simulator backend.
package flight

// Flight status values reported by the backend.
const (
	StatusCompleted  = "completed"
	StatusInProgress = "in_progress"
	StatusFailed     = "failed"
	StatusAborted    = "aborted"
)

// Flight is one flight record from the history endpoint. Records are
// immutable once fetched; the dashboard only reads them.
type Flight struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	Duration        int    `json:"duration"` // seconds
	PigeonsDetected int    `json:"pigeonsDetected"`
	Status          string `json:"status"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime,omitempty"`
}

// DroneStatus is a transient telemetry snapshot refreshed by polling.
// BatteryLevel is absent when the drone link has not reported stats yet.
type DroneStatus struct {
	IsConnected   bool     `json:"isConnected"`
	IsFlying      bool     `json:"isFlying"`
	BatteryLevel  *float64 `json:"batteryLevel,omitempty"`
	CurrentFlight string   `json:"currentFlight,omitempty"`
}

// ConnectionStatus reports link progression. droneReady implies
// sshConnected implies (typically) wifiConnected, but the dashboard only
// gates controls on the conjunction rather than enforcing the chain.
type ConnectionStatus struct {
	WifiConnected bool `json:"wifiConnected"`
	SSHConnected  bool `json:"sshConnected"`
	DroneReady    bool `json:"droneReady"`
}

// FlightSummary holds aggregate telemetry for one flight, fetched lazily
// when the detail modal opens.
type FlightSummary struct {
	FlightID    string  `json:"flightId"`
	DroneID     string  `json:"droneId"`
	Duration    int     `json:"duration"`
	AvgSpeed    float64 `json:"avgSpeed"`
	AvgAltitude float64 `json:"avgAltitude"`
	Status      string  `json:"status"`
	Date        string  `json:"date"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime,omitempty"`
}

// WiFiCheck is the response of the WiFi-only probe.
type WiFiCheck struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// ActionResult is the envelope for connect, disconnect, and return-home.
type ActionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// StartResult is the envelope for starting a flight.
type StartResult struct {
	Success  bool   `json:"success"`
	FlightID string `json:"flightId,omitempty"`
	Error    string `json:"error,omitempty"`
}

// StopResult is the envelope for stop and abort. PigeonsDetected is only
// present when the detection pipeline reported a count for the flight.
type StopResult struct {
	Success         bool   `json:"success"`
	PigeonsDetected *int   `json:"pigeonsDetected,omitempty"`
	Error           string `json:"error,omitempty"`
}
