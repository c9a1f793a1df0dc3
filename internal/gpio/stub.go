//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealRelay is not available on non-Linux platforms.
type RealRelay struct{}

// NewRealRelay returns an error on non-Linux platforms.
func NewRealRelay(pin int) (*RealRelay, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (r *RealRelay) Set(on bool) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *RealRelay) Close() error { return nil }

// RealSensorLine is not available on non-Linux platforms.
type RealSensorLine struct{}

// NewRealSensorLine returns an error on non-Linux platforms.
func NewRealSensorLine(pinClock, pinData int) (*RealSensorLine, error) {
	return nil, errUnsupported
}

// Watch is not implemented on non-Linux platforms.
func (r *RealSensorLine) Watch(handler func(dataHigh bool)) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *RealSensorLine) Close() error { return nil }
