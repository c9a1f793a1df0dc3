// Package telemetry publishes control-loop samples and system lifecycle
// events to MQTT, with abstraction for testing.
package telemetry

import (
	"encoding/json"
	"time"
)

// TopicSamples is the MQTT topic for per-PID-cycle control samples.
const TopicSamples = "workshop/hotplate/samples"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "workshop/hotplate/system"

// Sample is one control cycle's worth of loop state.
type Sample struct {
	Timestamp time.Time
	Target    float64
	Current   float64
	Ambient   float64
	PTerm     float64
	ITerm     float64
	DTerm     float64
	Power     float64
	RelayOn   bool
	Timeouts  int
}

// SystemEvent represents a system lifecycle event (e.g. startup,
// shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g. "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // pre-formatted JSON payload; if set, FormatSystem returns it directly
	Retained   bool   // whether the broker should retain the message
}

// Publisher publishes telemetry to MQTT.
type Publisher interface {
	// PublishSample sends a control sample to the broker. Returns error
	// if publishing fails (must not crash the control loop).
	PublishSample(s Sample) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(e SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// samplePayload is the wire form of a Sample.
type samplePayload struct {
	Sample sampleInner `json:"sample"`
}

type sampleInner struct {
	Timestamp string  `json:"timestamp"`
	Target    float64 `json:"target_c"`
	Current   float64 `json:"current_c"`
	Ambient   float64 `json:"ambient_c"`
	PTerm     float64 `json:"p_term"`
	ITerm     float64 `json:"i_term"`
	DTerm     float64 `json:"d_term"`
	Power     float64 `json:"power"`
	RelayOn   bool    `json:"relay_on"`
	Timeouts  int     `json:"sensor_timeouts"`
}

// systemPayload is the wire form of a SystemEvent.
type systemPayload struct {
	System systemInner `json:"system"`
}

type systemInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSample creates the JSON payload for a control sample.
func FormatSample(s Sample) ([]byte, error) {
	return json.Marshal(samplePayload{
		Sample: sampleInner{
			Timestamp: s.Timestamp.UTC().Format(time.RFC3339),
			Target:    s.Target,
			Current:   s.Current,
			Ambient:   s.Ambient,
			PTerm:     s.PTerm,
			ITerm:     s.ITerm,
			DTerm:     s.DTerm,
			Power:     s.Power,
			RelayOn:   s.RelayOn,
			Timeouts:  s.Timeouts,
		},
	})
}

// FormatSystem creates the JSON payload for a system event. If
// e.RawPayload is set, it is returned directly (used for full status
// snapshots).
func FormatSystem(e SystemEvent) ([]byte, error) {
	if e.RawPayload != nil {
		return e.RawPayload, nil
	}

	return json.Marshal(systemPayload{
		System: systemInner{
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			Event:     e.Event,
			Reason:    e.Reason,
		},
	})
}
