// Package heater converts a continuous power request into a
// time-proportioned on/off schedule for the zero-crossing relay: the
// power level is the number of milliseconds the relay stays closed out of
// each rolling 1-second window.
package heater

import "github.com/hwalsh/hotplate-pid/internal/gpio"

// DefaultWindowMillis is the length of the proportioning window.
const DefaultWindowMillis = 1000

// MaxPower is the full-on power request, in milliseconds per window.
const MaxPower = 1000.0

// Driver owns the relay schedule. Polled every control-loop tick with the
// current millisecond counter value; never blocks.
type Driver struct {
	relay gpio.Relay

	windowMillis uint32
	power        float64
	windowStart  uint32
	on           bool
}

// New returns a Driver over the given relay. windowMillis <= 0 selects
// DefaultWindowMillis.
func New(relay gpio.Relay, windowMillis int) *Driver {
	w := uint32(windowMillis)
	if windowMillis <= 0 {
		w = DefaultWindowMillis
	}
	return &Driver{relay: relay, windowMillis: w}
}

// SetPower requests a new power level, clamped to [0, MaxPower]. Takes
// effect at the next Update, not mid-write.
func (d *Driver) SetPower(power float64) {
	if power <= 0 {
		power = 0
	}
	if power >= MaxPower {
		power = MaxPower
	}
	d.power = power
}

// Power returns the current requested level in milliseconds per window.
func (d *Driver) Power() float64 {
	return d.power
}

// IsOn reports the commanded relay state.
func (d *Driver) IsOn() bool {
	return d.on
}

// Update advances the relay schedule. A window starts with the relay on;
// once the requested on-time has elapsed the relay opens until the next
// window. A window start timestamp numerically above now means the
// millisecond counter wrapped, which also begins a new window.
func (d *Driver) Update(now uint32) error {
	if now-d.windowStart >= d.windowMillis || d.windowStart > now {
		if err := d.setRelay(true); err != nil {
			return err
		}
		d.windowStart = now
	}
	// Checked every tick, so a power of 0 opens the relay on the same
	// tick the window began.
	if float64(now-d.windowStart) >= d.power {
		if err := d.setRelay(false); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) setRelay(on bool) error {
	if on == d.on {
		return nil
	}
	if err := d.relay.Set(on); err != nil {
		return err
	}
	d.on = on
	return nil
}
