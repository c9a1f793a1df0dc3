// Package controller ties the sensor service, PID and heater driver into
// one cooperative control loop. Tick is the only entry point; an external
// scheduler calls it at a fixed cadence and all work completes
// synchronously.
package controller

import (
	"github.com/hwalsh/hotplate-pid/internal/heater"
	"github.com/hwalsh/hotplate-pid/internal/pid"
	"github.com/hwalsh/hotplate-pid/internal/sensor"
	"github.com/hwalsh/hotplate-pid/internal/store"
)

// Defaults for the loop cadence and the sensor-loss fail-safe.
const (
	DefaultPIDIntervalMillis = 200
	DefaultLossThreshold     = 20
)

// Controller owns the target temperature and drives one PID cycle every
// interval, with the sensor-loss override forcing the heater off when the
// thermometer goes quiet for too long.
type Controller struct {
	sensor *sensor.Service
	pid    *pid.Controller
	heater *heater.Driver
	st     store.Store

	target float64

	intervalMillis uint32
	lossThreshold  int
	lastPID        uint32
}

// New loads the persisted target temperature and wires the loop together.
// intervalMillis <= 0 and lossThreshold <= 0 select the defaults.
func New(sen *sensor.Service, p *pid.Controller, h *heater.Driver, st store.Store, intervalMillis, lossThreshold int) (*Controller, error) {
	target, err := st.ReadFloat(store.SlotTarget)
	if err != nil {
		return nil, err
	}
	iv := uint32(intervalMillis)
	if intervalMillis <= 0 {
		iv = DefaultPIDIntervalMillis
	}
	if lossThreshold <= 0 {
		lossThreshold = DefaultLossThreshold
	}
	return &Controller{
		sensor:         sen,
		pid:            p,
		heater:         h,
		st:             st,
		target:         target,
		intervalMillis: iv,
		lossThreshold:  lossThreshold,
	}, nil
}

// Tick runs one pass of the control loop: poll the sensor, run the PID
// every interval, apply the sensor-loss override and advance the relay
// schedule. Returns true when a PID cycle ran this tick, so the caller
// knows a fresh sample is available to publish.
func (c *Controller) Tick(now uint32) (bool, error) {
	c.sensor.Poll(now)

	updated := false
	if now < c.lastPID {
		// Millisecond counter wrapped; restart the interval baseline.
		c.lastPID = 0
	}
	if now-c.lastPID > c.intervalMillis {
		c.lastPID += c.intervalMillis
		power := c.pid.Update(c.target, c.sensor.FreshTemperature())
		c.heater.SetPower(power)
		updated = true
	}

	// The one safety-critical response in the system: too many silent
	// timeout windows in a row means the reading can no longer be
	// trusted, so stop heating.
	if c.sensor.ConsecutiveTimeouts() > c.lossThreshold {
		c.heater.SetPower(0)
	}

	return updated, c.heater.Update(now)
}

// TargetTemp returns the operator-set target temperature.
func (c *Controller) TargetTemp() float64 {
	return c.target
}

// SetTargetTemp updates the target and persists it. The PID integrator is
// deliberately left alone.
func (c *Controller) SetTargetTemp(t float64) error {
	c.target = t
	return c.st.WriteFloat(store.SlotTarget, t)
}

// P returns the proportional gain.
func (c *Controller) P() float64 { return c.pid.P() }

// I returns the integral gain.
func (c *Controller) I() float64 { return c.pid.I() }

// D returns the derivative gain.
func (c *Controller) D() float64 { return c.pid.D() }

// SetP updates and persists the proportional gain.
func (c *Controller) SetP(v float64) error { return c.pid.SetP(v) }

// SetI updates and persists the integral gain.
func (c *Controller) SetI(v float64) error { return c.pid.SetI(v) }

// SetD updates and persists the derivative gain.
func (c *Controller) SetD(v float64) error { return c.pid.SetD(v) }

// LastTemperature returns the most recent control-loop reading without
// side effects.
func (c *Controller) LastTemperature() float64 {
	return c.sensor.LastTemperature()
}

// AmbientTemperature returns the sensor's ambient reading.
func (c *Controller) AmbientTemperature() float64 {
	return c.sensor.AmbientTemperature()
}

// HeatPower returns the heater's current requested power level.
func (c *Controller) HeatPower() float64 {
	return c.heater.Power()
}

// RelayOn reports the commanded relay state.
func (c *Controller) RelayOn() bool {
	return c.heater.IsOn()
}

// PIDTerms returns the diagnostic terms of the last PID cycle.
func (c *Controller) PIDTerms() (p, i, d float64) {
	return c.pid.Terms()
}

// ConsecutiveTimeouts reports the sensor-health counter.
func (c *Controller) ConsecutiveTimeouts() int {
	return c.sensor.ConsecutiveTimeouts()
}

// SensorLost reports whether the sensor-loss fail-safe is active.
func (c *Controller) SensorLost() bool {
	return c.sensor.ConsecutiveTimeouts() > c.lossThreshold
}
