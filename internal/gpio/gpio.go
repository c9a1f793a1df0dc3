// Package gpio provides GPIO access with hardware abstraction.
// The real implementations use the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Relay drives the zero-crossing solid-state relay that switches the hot
// plate. Active-high: true closes the relay and heats.
type Relay interface {
	// Set drives the relay output line.
	Set(on bool) error

	// Close releases GPIO resources.
	Close() error
}

// SensorLine delivers the IR thermometer's clocked serial output. Watch
// installs a handler invoked once per falling clock edge with the sampled
// level of the data line. The handler runs on the edge-event goroutine
// and must be fast and non-blocking.
type SensorLine interface {
	Watch(handler func(dataHigh bool)) error

	// Close stops edge delivery and releases GPIO resources.
	Close() error
}

// Pin defaults (BCM numbering), matching the bench wiring.
const (
	DefaultPinClock = 3  // IR sensor clock, falling-edge interrupt source
	DefaultPinData  = 4  // IR sensor data
	DefaultPinRelay = 13 // heater relay output
)
