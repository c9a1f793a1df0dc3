package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	TargetC       float64    `json:"target_c"`
	CurrentC      float64    `json:"current_c"`
	AmbientC      float64    `json:"ambient_c"`
	PGain         float64    `json:"p_gain"`
	IGain         float64    `json:"i_gain"`
	DGain         float64    `json:"d_gain"`
	Power         float64    `json:"power"`
	RelayOn       bool       `json:"relay_on"`
	Timeouts      int        `json:"sensor_timeouts"`
	SensorLost    bool       `json:"sensor_lost"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PIDIntervalMs   int64  `json:"pid_interval_ms"`
	HeaterWindowMs  int64  `json:"heater_window_ms"`
	SensorTimeoutMs int64  `json:"sensor_timeout_ms"`
	LossThreshold   int    `json:"loss_threshold"`
	HeartbeatMs     int64  `json:"heartbeat_ms"`
	Broker          string `json:"broker"`
	HTTPAddr        string `json:"http_addr"`
	SerialPort      string `json:"serial_port"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		TargetC:       snap.Target,
		CurrentC:      snap.Current,
		AmbientC:      snap.Ambient,
		PGain:         snap.PGain,
		IGain:         snap.IGain,
		DGain:         snap.DGain,
		Power:         snap.Power,
		RelayOn:       snap.RelayOn,
		Timeouts:      snap.Timeouts,
		SensorLost:    snap.SensorLost,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PIDIntervalMs:   snap.Config.PIDIntervalMs,
			HeaterWindowMs:  snap.Config.HeaterWindowMs,
			SensorTimeoutMs: snap.Config.SensorTimeoutMs,
			LossThreshold:   snap.Config.LossThreshold,
			HeartbeatMs:     snap.Config.HeartbeatMs,
			Broker:          snap.Config.Broker,
			HTTPAddr:        snap.Config.HTTPAddr,
			SerialPort:      snap.Config.SerialPort,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
