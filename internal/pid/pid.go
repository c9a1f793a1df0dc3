// Package pid implements the hot plate's feedback controller. The
// algorithm is deliberately the classic accumulate-then-clamp form with a
// gain-relative windup guard and a subtracted derivative term; the sign
// convention is part of the tuned behavior and must not be "fixed".
package pid

import (
	"math"

	"github.com/hwalsh/hotplate-pid/internal/store"
)

// windupGuardGain bounds the integrator at +/- windupGuardGain/iGain.
const windupGuardGain = 100.0

// minIntegralGain is the threshold below which the integral gain is
// treated as disabled and the windup clamp is skipped, so the guard
// division stays well defined.
const minIntegralGain = 1e-9

// Controller holds the gain set and the integrator state. Gains are
// persisted individually on every change; the integrator and the
// last-measured temperature live only in memory and survive everything
// except a restart or the windup clamp.
type Controller struct {
	st store.Store

	pGain float64
	iGain float64
	dGain float64

	integrator float64
	lastTemp   float64

	// Diagnostic views of the last update, for the debug command and
	// telemetry.
	pTerm float64
	iTerm float64
	dTerm float64
}

// New loads the gain set from its store slots.
func New(st store.Store) (*Controller, error) {
	c := &Controller{st: st}

	var err error
	if c.pGain, err = st.ReadFloat(store.SlotPGain); err != nil {
		return nil, err
	}
	if c.iGain, err = st.ReadFloat(store.SlotIGain); err != nil {
		return nil, err
	}
	if c.dGain, err = st.ReadFloat(store.SlotDGain); err != nil {
		return nil, err
	}
	return c, nil
}

// P returns the proportional gain.
func (c *Controller) P() float64 { return c.pGain }

// I returns the integral gain.
func (c *Controller) I() float64 { return c.iGain }

// D returns the derivative gain.
func (c *Controller) D() float64 { return c.dGain }

// SetP updates and persists the proportional gain. The integrator and
// last-temperature state are untouched.
func (c *Controller) SetP(v float64) error {
	c.pGain = v
	return c.st.WriteFloat(store.SlotPGain, v)
}

// SetI updates and persists the integral gain.
func (c *Controller) SetI(v float64) error {
	c.iGain = v
	return c.st.WriteFloat(store.SlotIGain, v)
}

// SetD updates and persists the derivative gain.
func (c *Controller) SetD(v float64) error {
	c.dGain = v
	return c.st.WriteFloat(store.SlotDGain, v)
}

// Update runs one control interval and returns the requested heat power.
// The caller clamps the result to the heater's 0-1000 range.
func (c *Controller) Update(target, current float64) float64 {
	err := target - current

	c.pTerm = c.pGain * err

	// Accumulate raw error; the clamp below is the only thing that ever
	// shrinks the integrator.
	c.integrator += err
	if math.Abs(c.iGain) > minIntegralGain {
		guard := windupGuardGain / c.iGain
		if c.integrator > guard {
			c.integrator = guard
		} else if c.integrator < -guard {
			c.integrator = -guard
		}
	}
	c.iTerm = c.iGain * c.integrator

	// Derivative on the measurement, not the error: how fast the plate is
	// moving since the previous interval.
	c.dTerm = c.dGain * (current - c.lastTemp)
	c.lastTemp = current

	return c.pTerm + c.iTerm - c.dTerm
}

// Terms returns the proportional, integral and derivative contributions
// of the last Update call.
func (c *Controller) Terms() (p, i, d float64) {
	return c.pTerm, c.iTerm, c.dTerm
}
