// Package config handles loading and saving the daemon configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the daemon configuration.
type Config struct {
	Pins    PinsConfig    `yaml:"pins"`
	Serial  SerialConfig  `yaml:"serial"`
	Control ControlConfig `yaml:"control"`
	Store   StoreConfig   `yaml:"store"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// PinsConfig contains the BCM GPIO pin assignments.
type PinsConfig struct {
	Clock int `yaml:"clock"`
	Data  int `yaml:"data"`
	Relay int `yaml:"relay"`
}

// SerialConfig contains the operator console serial port settings.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// ControlConfig contains control-loop timing parameters.
type ControlConfig struct {
	TickMs          int64 `yaml:"tick_ms"`
	PIDIntervalMs   int64 `yaml:"pid_interval_ms"`
	HeaterWindowMs  int64 `yaml:"heater_window_ms"`
	AutoPrintMs     int64 `yaml:"auto_print_ms"`
	SensorTimeoutMs int64 `yaml:"sensor_timeout_ms"`
	LossThreshold   int   `yaml:"loss_threshold"`
}

// StoreConfig contains the settings-file location.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// MQTTConfig contains the telemetry broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`

	// HeartbeatMs is the interval between periodic status heartbeat
	// events. Zero disables the heartbeat.
	HeartbeatMs int64 `yaml:"heartbeat_ms"`
}

// HTTPConfig contains the status server settings.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Pins: PinsConfig{
			Clock: 3,
			Data:  4,
			Relay: 13,
		},
		Serial: SerialConfig{
			Port: "/dev/ttyUSB0",
			Baud: 38400,
		},
		Control: ControlConfig{
			TickMs:          10,
			PIDIntervalMs:   200,
			HeaterWindowMs:  1000,
			AutoPrintMs:     200,
			SensorTimeoutMs: 1000,
			LossThreshold:   20,
		},
		Store: StoreConfig{
			Path: "/var/lib/hotplate-pid/settings.dat",
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "hotplate-pid",
			HeartbeatMs: 900000, // 15 minutes
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	// Pin 0 is a valid BCM line but is reserved (ID EEPROM), so zero
	// still means "not set" here.
	if c.Pins.Clock == 0 {
		c.Pins.Clock = def.Pins.Clock
	}
	if c.Pins.Data == 0 {
		c.Pins.Data = def.Pins.Data
	}
	if c.Pins.Relay == 0 {
		c.Pins.Relay = def.Pins.Relay
	}

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.Control.TickMs == 0 {
		c.Control.TickMs = def.Control.TickMs
	}
	if c.Control.PIDIntervalMs == 0 {
		c.Control.PIDIntervalMs = def.Control.PIDIntervalMs
	}
	if c.Control.HeaterWindowMs == 0 {
		c.Control.HeaterWindowMs = def.Control.HeaterWindowMs
	}
	if c.Control.AutoPrintMs == 0 {
		c.Control.AutoPrintMs = def.Control.AutoPrintMs
	}
	if c.Control.SensorTimeoutMs == 0 {
		c.Control.SensorTimeoutMs = def.Control.SensorTimeoutMs
	}
	if c.Control.LossThreshold == 0 {
		c.Control.LossThreshold = def.Control.LossThreshold
	}

	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	// HeartbeatMs is deliberately not defaulted here: an explicit
	// heartbeat_ms: 0 disables the heartbeat.

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = def.HTTP.Addr
	}
}
