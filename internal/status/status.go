// Package status provides a thread-safe status tracker for the hotplate
// daemon. It is read by the HTTP handlers and feeds the MQTT lifecycle
// payloads.
package status

import (
	"sync"
	"time"
)

// Config contains daemon configuration for display.
type Config struct {
	PIDIntervalMs   int64
	HeaterWindowMs  int64
	SensorTimeoutMs int64
	LossThreshold   int
	HeartbeatMs     int64
	Broker          string
	HTTPAddr        string
	SerialPort      string
}

// State is the control-loop view updated every PID cycle.
type State struct {
	Target   float64
	Current  float64
	Ambient  float64
	PGain    float64
	IGain    float64
	DGain    float64
	Power    float64
	RelayOn  bool
	Timeouts int
	// SensorLost mirrors the loop's fail-safe: true once the timeout run
	// has exceeded the loss threshold and the heater is forced off.
	SensorLost bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the control-loop state. Called after every PID cycle.
func (t *Tracker) Update(st State) {
	t.mu.Lock()
	t.snap.State = st
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
