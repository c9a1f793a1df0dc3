// Package command implements the single-character operator protocol for
// live tuning over the serial line, plus the status printer. The
// processor is transport-agnostic: bytes in, io.Writer out, so the
// daemon's serial port and the tests share the same code path.
package command

import (
	"fmt"
	"io"
)

// DefaultAutoPrintIntervalMillis is the cadence of periodic status lines
// when auto-printing is toggled on.
const DefaultAutoPrintIntervalMillis = 200

// Adjustment delta bounds for the +/- commands.
const (
	maxDelta = 100.0
	minDelta = 0.01
)

// printPlaces is the precision of temperature and gain fields; power is
// always printed with no decimals.
const printPlaces = 2

// Reset defaults applied by the R command.
const (
	defaultPGain  = 30.0
	defaultIGain  = 0.0
	defaultDGain  = 0.0
	defaultTarget = 200.0
)

// Plant is the view of the control loop the operator manipulates.
type Plant interface {
	P() float64
	I() float64
	D() float64
	SetP(v float64) error
	SetI(v float64) error
	SetD(v float64) error
	TargetTemp() float64
	SetTargetTemp(t float64) error
	LastTemperature() float64
	HeatPower() float64
	PIDTerms() (p, i, d float64)
}

// Processor interprets operator bytes and renders status output.
type Processor struct {
	plant Plant
	out   io.Writer

	delta     float64
	autoPrint bool
	graphMode bool

	intervalMillis uint32
	lastPrint      uint32
}

// New returns a Processor writing to out. intervalMillis <= 0 selects
// DefaultAutoPrintIntervalMillis.
func New(plant Plant, out io.Writer, intervalMillis int) *Processor {
	iv := uint32(intervalMillis)
	if intervalMillis <= 0 {
		iv = DefaultAutoPrintIntervalMillis
	}
	return &Processor{
		plant:          plant,
		out:            out,
		delta:          1.0,
		intervalMillis: iv,
	}
}

// HandleByte interprets one operator byte. Unrecognized bytes are
// silently ignored.
func (p *Processor) HandleByte(b byte) error {
	switch b {
	case 'R':
		if err := p.plant.SetP(defaultPGain); err != nil {
			return err
		}
		if err := p.plant.SetI(defaultIGain); err != nil {
			return err
		}
		if err := p.plant.SetD(defaultDGain); err != nil {
			return err
		}
		return p.plant.SetTargetTemp(defaultTarget)
	case 'P':
		return p.plant.SetP(p.plant.P() + p.delta)
	case 'p':
		return p.plant.SetP(p.plant.P() - p.delta)
	case 'I':
		return p.plant.SetI(p.plant.I() + p.delta)
	case 'i':
		return p.plant.SetI(p.plant.I() - p.delta)
	case 'D':
		return p.plant.SetD(p.plant.D() + p.delta)
	case 'd':
		return p.plant.SetD(p.plant.D() - p.delta)
	case 'T':
		return p.plant.SetTargetTemp(p.plant.TargetTemp() + p.delta)
	case 't':
		return p.plant.SetTargetTemp(p.plant.TargetTemp() - p.delta)
	case '+':
		p.delta *= 10.0
		if p.delta > maxDelta {
			p.delta = maxDelta
		}
	case '-':
		p.delta /= 10.0
		if p.delta < minDelta {
			p.delta = minDelta
		}
	case 'u':
		p.autoPrint = !p.autoPrint
	case 'g':
		p.graphMode = !p.graphMode
	case ' ':
		return p.PrintStatus()
	case '?':
		return p.PrintHelp()
	case 'b':
		return p.PrintPIDDebug()
	}
	return nil
}

// AutoPrint emits a periodic status line when auto-printing is enabled.
// Called every tick with the millisecond counter; handles counter
// wraparound by resetting the baseline.
func (p *Processor) AutoPrint(now uint32) error {
	if now < p.lastPrint {
		p.lastPrint = 0
	}
	if now-p.lastPrint > p.intervalMillis {
		p.lastPrint += p.intervalMillis
		if p.autoPrint {
			if p.graphMode {
				return p.PrintStatusForGraph()
			}
			return p.PrintStatus()
		}
	}
	return nil
}

// Delta returns the current adjustment step.
func (p *Processor) Delta() float64 {
	return p.delta
}

// PrintStatus writes the human-readable status line.
func (p *Processor) PrintStatus() error {
	_, err := fmt.Fprintf(p.out,
		"SET TEMP:%s, CUR TEMP:%s, GAINS p:%s i:%s d:%s, Delta: %s, Power: %s\r\n",
		formatFloat(p.plant.TargetTemp(), printPlaces),
		formatFloat(p.plant.LastTemperature(), printPlaces),
		formatFloat(p.plant.P(), printPlaces),
		formatFloat(p.plant.I(), printPlaces),
		formatFloat(p.plant.D(), printPlaces),
		formatFloat(p.delta, printPlaces),
		formatFloat(p.plant.HeatPower(), 0))
	return err
}

// PrintStatusForGraph writes the comma-separated status line for
// plotting tools.
func (p *Processor) PrintStatusForGraph() error {
	_, err := fmt.Fprintf(p.out, "%s, %s, %s, %s, %s, %s\n",
		formatFloat(p.plant.TargetTemp(), printPlaces),
		formatFloat(p.plant.LastTemperature(), printPlaces),
		formatFloat(p.plant.P(), printPlaces),
		formatFloat(p.plant.I(), printPlaces),
		formatFloat(p.plant.D(), printPlaces),
		formatFloat(p.plant.HeatPower(), 0))
	return err
}

// PrintPIDDebug writes the last PID cycle's term breakdown.
func (p *Processor) PrintPIDDebug() error {
	pTerm, iTerm, dTerm := p.plant.PIDTerms()
	_, err := fmt.Fprintf(p.out, "PID formula (P + I - D): %s + %s - %s POWER: %s \r\n",
		formatFloat(pTerm, printPlaces),
		formatFloat(iTerm, printPlaces),
		formatFloat(dTerm, printPlaces),
		formatFloat(p.plant.HeatPower(), 0))
	return err
}

// PrintWelcome writes the boot banner.
func (p *Processor) PrintWelcome() error {
	lines := []string{
		"",
		"Welcome to the HPSS, the Hot Plate Solder System",
		"Send back one or more characters to setup the controller.",
		"If this is your initial run, please enter 'R' to Reset the stored settings.",
		"Enter '?' for help.",
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(p.out, "%s\r\n", l); err != nil {
			return err
		}
	}
	return nil
}

// PrintHelp writes the command reference.
func (p *Processor) PrintHelp() error {
	lines := []string{
		"Send these characters for control:",
		"<space> : print status now",
		"u : toggle periodic status update",
		"g : toggle update style between human and graphing mode",
		"R : reset/initialize PID gain values",
		"b : print PID debug values",
		"? : print help",
		"+/- : adjust delta by a factor of ten",
		"P/p : up/down adjust p gain by delta",
		"I/i : up/down adjust i gain by delta",
		"D/d : up/down adjust d gain by delta",
		"T/t : up/down adjust set temp by delta",
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(p.out, "%s\r\n", l); err != nil {
			return err
		}
	}
	return nil
}
