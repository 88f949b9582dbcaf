package sim

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"scarecrow-ops/internal/config"
	"scarecrow-ops/internal/flight"
)

const minFlightBattery = 5.0

// Drone simulates the backend's view of the scarecrow vehicle: the
// wifi/ssh/ready link progression, the flight lifecycle, battery drain,
// and pigeon detections. All exported methods are safe for concurrent use
// by HTTP handlers.
type Drone struct {
	mu  sync.Mutex
	cfg config.SimulatorConfig
	rng *rand.Rand
	log *slog.Logger

	wifi        bool
	ssh         bool
	ready       bool
	flying      bool
	readyIn     int
	returningIn int

	battery  float64
	altitude float64
	speed    float64

	current   *activeFlight
	flights   []flight.Flight // newest first
	aggs      map[string]*flightAgg
	writer    TelemetryWriter
	detWriter DetectionWriter
	summaries *cache.Cache
}

type activeFlight struct {
	id      string
	start   time.Time
	pigeons int
}

type flightAgg struct {
	samples  int
	sumSpeed float64
	sumAlt   float64
}

// NewDrone creates a simulated drone with a full battery and WiFi in range.
// writer and detWriter may be nil to discard telemetry.
func NewDrone(cfg config.SimulatorConfig, writer TelemetryWriter, detWriter DetectionWriter, log *slog.Logger) *Drone {
	ttl := time.Duration(cfg.SummaryCacheSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Drone{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		log:       log,
		wifi:      true,
		battery:   100,
		aggs:      make(map[string]*flightAgg),
		writer:    writer,
		detWriter: detWriter,
		summaries: cache.New(ttl, 2*ttl),
	}
}

// Run advances the simulation until ctx is done.
func (d *Drone) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Tick())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d.Tick(now)
		}
	}
}

// Tick advances the simulation by one step.
func (d *Drone) Tick(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ssh && !d.ready {
		d.readyIn--
		if d.readyIn <= 0 {
			d.ready = true
			d.log.Info("drone passed pre-flight checks")
		}
	}

	if !d.flying {
		return
	}

	d.battery -= d.cfg.BatteryDrainRate
	d.altitude = clamp(d.altitude+d.rng.Float64()*4-1.5, 2, 40)
	d.speed = clamp(d.speed+d.rng.Float64()*2-1, 0.5, 12)

	row := TelemetryRow{
		DroneID:   d.cfg.DroneID,
		FlightID:  d.current.id,
		AltitudeM: round1(d.altitude),
		SpeedMPS:  round1(d.speed),
		Battery:   round1(d.battery),
		Timestamp: now,
	}
	agg := d.aggs[d.current.id]
	agg.samples++
	agg.sumSpeed += row.SpeedMPS
	agg.sumAlt += row.AltitudeM
	if d.writer != nil {
		_ = d.writer.Write(row)
	}

	if d.rng.Float64() < d.cfg.DetectionRate {
		n := 1 + d.rng.Intn(3)
		d.current.pigeons += n
		if d.detWriter != nil {
			_ = d.detWriter.WriteDetection(DetectionRow{
				DroneID:    d.cfg.DroneID,
				FlightID:   d.current.id,
				Count:      n,
				Confidence: round2(0.6 + d.rng.Float64()*0.4),
				Timestamp:  now,
			})
		}
	}

	if d.returningIn > 0 {
		d.returningIn--
		if d.returningIn == 0 {
			d.finishFlight(flight.StatusCompleted, now)
			return
		}
	}

	if d.battery <= minFlightBattery {
		d.log.Warn("battery critical, forcing landing", "battery", round1(d.battery))
		d.finishFlight(flight.StatusFailed, now)
	}
}

// finishFlight closes the current flight record. Callers hold d.mu.
func (d *Drone) finishFlight(status string, now time.Time) {
	f := &d.flights[0]
	f.Status = status
	f.EndTime = now.UTC().Format(time.RFC3339)
	f.Duration = int(now.Sub(d.current.start).Seconds())
	f.PigeonsDetected = d.current.pigeons
	d.log.Info("flight finished", "flight", d.current.id, "status", status, "pigeons", d.current.pigeons)
	d.current = nil
	d.flying = false
	d.returningIn = 0
	d.altitude = 0
	d.speed = 0
}

// CheckWiFi reports whether the drone's WiFi network is in range.
func (d *Drone) CheckWiFi() flight.WiFiCheck {
	d.mu.Lock()
	defer d.mu.Unlock()
	return flight.WiFiCheck{Connected: d.wifi}
}

// SetWiFi toggles simulated WiFi reachability.
func (d *Drone) SetWiFi(up bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wifi = up
	if !up {
		if d.flying {
			d.finishFlight(flight.StatusFailed, time.Now())
		}
		d.ssh = false
		d.ready = false
	}
}

// ConnectSSH simulates establishing the SSH bridge: it takes the configured
// latency and fails at the configured rate.
func (d *Drone) ConnectSSH() flight.ActionResult {
	time.Sleep(d.cfg.ConnectLatency())

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ssh {
		return flight.ActionResult{Success: true}
	}
	if !d.wifi {
		return flight.ActionResult{Success: false, Error: "Cannot reach drone. Make sure you're connected to the drone's WiFi."}
	}
	if d.rng.Float64() < d.cfg.ConnectFailureRate {
		return flight.ActionResult{Success: false, Error: "Failed to start SSH connection"}
	}
	d.ssh = true
	d.ready = false
	d.readyIn = d.cfg.ReadyDelayTicks
	d.log.Info("ssh bridge established")
	return flight.ActionResult{Success: true}
}

// DisconnectSSH tears down the SSH bridge. A flight interrupted by a
// disconnect is recorded as failed.
func (d *Drone) DisconnectSSH() flight.ActionResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.flying {
		d.finishFlight(flight.StatusFailed, time.Now())
	}
	d.ssh = false
	d.ready = false
	d.log.Info("ssh bridge closed")
	return flight.ActionResult{Success: true}
}

// Status returns the full link progression.
func (d *Drone) Status() flight.ConnectionStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return flight.ConnectionStatus{
		WifiConnected: d.wifi,
		SSHConnected:  d.ssh,
		DroneReady:    d.ssh && d.ready,
	}
}

// DroneStatus returns the telemetry snapshot. BatteryLevel is only present
// while the SSH stats stream is up.
func (d *Drone) DroneStatus() flight.DroneStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	ds := flight.DroneStatus{
		IsConnected: d.ssh,
		IsFlying:    d.flying,
	}
	if d.ssh {
		b := round1(d.battery)
		ds.BatteryLevel = &b
	}
	if d.current != nil {
		ds.CurrentFlight = d.current.id
	}
	return ds
}

// StartFlight arms the drone and opens a new flight record.
func (d *Drone) StartFlight() flight.StartResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ssh || !d.ready {
		return flight.StartResult{Success: false, Error: "Not connected to drone"}
	}
	if d.flying {
		return flight.StartResult{Success: false, Error: "Flight already in progress"}
	}
	if d.battery <= minFlightBattery {
		return flight.StartResult{Success: false, Error: "Battery too low for takeoff"}
	}

	now := time.Now()
	id := uuid.New().String()
	d.current = &activeFlight{id: id, start: now}
	d.aggs[id] = &flightAgg{}
	d.flights = append([]flight.Flight{{
		ID:        id,
		Date:      now.UTC().Format("2006-01-02"),
		Status:    flight.StatusInProgress,
		StartTime: now.UTC().Format(time.RFC3339),
	}}, d.flights...)
	d.flying = true
	d.altitude = 2
	d.speed = 1
	d.log.Info("flight started", "flight", id)
	return flight.StartResult{Success: true, FlightID: id}
}

// StopFlight commands a controlled stop and records the flight as
// completed, returning the pigeon count for the flight.
func (d *Drone) StopFlight() flight.StopResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.flying {
		return flight.StopResult{Success: false, Error: "No active flight"}
	}
	n := d.current.pigeons
	d.finishFlight(flight.StatusCompleted, time.Now())
	return flight.StopResult{Success: true, PigeonsDetected: &n}
}

// ReturnHome starts a return-to-launch; the flight completes on its own a
// few ticks later.
func (d *Drone) ReturnHome() flight.ActionResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.flying {
		return flight.ActionResult{Success: false, Error: "No active flight"}
	}
	if d.returningIn == 0 {
		d.returningIn = d.cfg.ReturnHomeTicks
		d.log.Info("return to launch initiated", "flight", d.current.id)
	}
	return flight.ActionResult{Success: true}
}

// Abort performs an emergency stop. With no active flight it still
// succeeds, matching the kill-switch semantics of the real bridge.
func (d *Drone) Abort() flight.StopResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.flying {
		return flight.StopResult{Success: true}
	}
	n := d.current.pigeons
	d.finishFlight(flight.StatusAborted, time.Now())
	return flight.StopResult{Success: true, PigeonsDetected: &n}
}

// Flights returns the flight history, newest first. The in-progress record
// reports its duration and detections so far.
func (d *Drone) Flights() []flight.Flight {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]flight.Flight, len(d.flights))
	copy(out, d.flights)
	if d.current != nil && len(out) > 0 {
		out[0].Duration = int(time.Since(d.current.start).Seconds())
		out[0].PigeonsDetected = d.current.pigeons
	}
	return out
}

// Flight returns one flight record by ID.
func (d *Drone) Flight(id string) (flight.Flight, bool) {
	for _, f := range d.Flights() {
		if f.ID == id {
			return f, true
		}
	}
	return flight.Flight{}, false
}

// Summary aggregates telemetry for one flight. Summaries of finished
// flights are memoized with a TTL.
func (d *Drone) Summary(id string) (flight.FlightSummary, bool) {
	if v, ok := d.summaries.Get(id); ok {
		return v.(flight.FlightSummary), true
	}

	f, ok := d.Flight(id)
	if !ok {
		return flight.FlightSummary{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	s := flight.FlightSummary{
		FlightID:  f.ID,
		DroneID:   d.cfg.DroneID,
		Duration:  f.Duration,
		Status:    f.Status,
		Date:      f.Date,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
	}
	if agg := d.aggs[id]; agg != nil && agg.samples > 0 {
		s.AvgSpeed = round2(agg.sumSpeed / float64(agg.samples))
		s.AvgAltitude = round2(agg.sumAlt / float64(agg.samples))
	}
	if f.Status != flight.StatusInProgress {
		d.summaries.Set(id, s, cache.DefaultExpiration)
	}
	return s, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
