// Package sensor turns decoded IR thermometer frames into temperatures.
// Pure logic: time is always injected as a millisecond counter value, so
// tests never sleep.
package sensor

import (
	"encoding/binary"

	"github.com/hwalsh/hotplate-pid/internal/decoder"
)

// Frame type tags, first byte of every message.
const (
	tagObject  = 0x4C
	tagAmbient = 0x66
)

// DefaultTimeoutMillis is how long the line may stay quiet before the
// decoder is force-reset and a timeout is counted.
const DefaultTimeoutMillis = 1000

// startupTemp is the power-on object temperature before the first frame
// arrives. Historically a sensor-error marker; callers judge staleness by
// ConsecutiveTimeouts, never by value.
const startupTemp = -127.0

// Service polls the decoder, converts payloads to degrees Celsius and
// tracks how long the sensor has been silent.
type Service struct {
	dec *decoder.Decoder

	timeoutMillis uint32

	object  float64
	ambient float64

	lastFrame uint32
	timeouts  int

	// latest is the reading handed out by FreshTemperature, repeated by
	// LastTemperature. sum and samples accumulate alongside it but feed
	// nothing; they are vestigial from an averaging design and kept inert.
	latest  float64
	sum     float64
	samples int
}

// New returns a Service polling the given decoder. timeoutMillis <= 0
// selects DefaultTimeoutMillis.
func New(dec *decoder.Decoder, timeoutMillis int) *Service {
	t := uint32(timeoutMillis)
	if timeoutMillis <= 0 {
		t = DefaultTimeoutMillis
	}
	return &Service{
		dec:           dec,
		timeoutMillis: t,
		object:        startupTemp,
	}
}

// Poll consumes a pending frame, if any, and advances the staleness
// timer. now is the current millisecond counter value. Non-blocking;
// called once per control-loop tick.
func (s *Service) Poll(now uint32) {
	if f, ok := s.dec.TakeFrame(); ok {
		s.lastFrame = now
		s.timeouts = 0

		raw := binary.BigEndian.Uint16(f[1:3])
		switch f[0] {
		case tagObject:
			s.object = kelvin16ToCelsius(raw)
		case tagAmbient:
			s.ambient = kelvin16ToCelsius(raw)
		}
		// Unknown tags: frame discarded, no error.
	}

	s.sum += s.object
	s.samples++

	if now-s.lastFrame > s.timeoutMillis {
		s.dec.ForceReset()
		s.lastFrame = now
		s.timeouts++
	}
}

// kelvin16ToCelsius converts the sensor's 1/16-Kelvin fixed point payload.
func kelvin16ToCelsius(raw uint16) float64 {
	return float64(raw)/16.0 - 273.15
}

// FreshTemperature returns the most recent object temperature and resets
// the read accumulators. Read-once semantics; this is the control loop's
// entry point.
func (s *Service) FreshTemperature() float64 {
	s.latest = s.object
	s.sum = 0
	s.samples = 0
	return s.latest
}

// LastTemperature returns the same reading FreshTemperature last handed
// out, without side effects. Used by the status display.
func (s *Service) LastTemperature() float64 {
	return s.latest
}

// AmbientTemperature returns the most recent ambient reading.
func (s *Service) AmbientTemperature() float64 {
	return s.ambient
}

// ConsecutiveTimeouts reports how many timeout windows in a row have
// passed without a frame. This is the sensor-health signal the control
// loop's safety override keys on.
func (s *Service) ConsecutiveTimeouts() int {
	return s.timeouts
}
