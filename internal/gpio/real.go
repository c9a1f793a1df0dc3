//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealRelay drives the relay through the Linux GPIO character device.
type RealRelay struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealRelay requests the relay pin as an output, initially off.
func NewRealRelay(pin int) (*RealRelay, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", pin, err)
	}

	return &RealRelay{chip: chip, line: line}, nil
}

// Set drives the relay line. Active-high.
func (r *RealRelay) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := r.line.SetValue(v); err != nil {
		return fmt.Errorf("set relay: %w", err)
	}
	return nil
}

// Close forces the relay off and releases GPIO resources. The plate must
// never be left heating after the daemon exits.
func (r *RealRelay) Close() error {
	var errs []error

	if r.line != nil {
		if err := r.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("relay off: %w", err))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealSensorLine receives IR thermometer clock edges from the Linux GPIO
// character device and samples the data line inside the event handler.
type RealSensorLine struct {
	chip    *gpiocdev.Chip
	pinClk  int
	data    *gpiocdev.Line
	clk     *gpiocdev.Line
	handler func(dataHigh bool)
}

// NewRealSensorLine opens the clock and data pins. The clock line is not
// requested until Watch installs a handler.
func NewRealSensorLine(pinClock, pinData int) (*RealSensorLine, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	data, err := chip.RequestLine(pinData, gpiocdev.AsInput)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request data pin %d: %w", pinData, err)
	}

	return &RealSensorLine{chip: chip, pinClk: pinClock, data: data}, nil
}

// Watch requests the clock line with falling-edge events. Each event
// samples the data line and hands the bit to the handler.
func (r *RealSensorLine) Watch(handler func(dataHigh bool)) error {
	if r.clk != nil {
		return fmt.Errorf("clock pin %d already watched", r.pinClk)
	}
	r.handler = handler

	clk, err := r.chip.RequestLine(r.pinClk,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(r.onEdge))
	if err != nil {
		return fmt.Errorf("request clock pin %d: %w", r.pinClk, err)
	}
	r.clk = clk
	return nil
}

// onEdge runs on the gpiocdev event goroutine; keep it minimal. A data
// read failure is treated as a low bit; the frame it corrupts is
// corrected by the sensor timeout, same as any other line noise.
func (r *RealSensorLine) onEdge(gpiocdev.LineEvent) {
	v, err := r.data.Value()
	if err != nil {
		v = 0
	}
	r.handler(v != 0)
}

// Close stops edge delivery and releases GPIO resources.
func (r *RealSensorLine) Close() error {
	var errs []error

	if r.clk != nil {
		if err := r.clk.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close clock pin: %w", err))
		}
	}
	if r.data != nil {
		if err := r.data.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close data pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
