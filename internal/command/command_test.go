package command

import (
	"bytes"
	"strings"
	"testing"
)

// fakePlant implements Plant with plain fields.
type fakePlant struct {
	p, i, d float64
	target  float64
	current float64
	power   float64
	pTerm   float64
	iTerm   float64
	dTerm   float64

	setErr error
}

func (f *fakePlant) P() float64 { return f.p }
func (f *fakePlant) I() float64 { return f.i }
func (f *fakePlant) D() float64 { return f.d }
func (f *fakePlant) SetP(v float64) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.p = v
	return nil
}
func (f *fakePlant) SetI(v float64) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.i = v
	return nil
}
func (f *fakePlant) SetD(v float64) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.d = v
	return nil
}
func (f *fakePlant) TargetTemp() float64 { return f.target }
func (f *fakePlant) SetTargetTemp(t float64) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.target = t
	return nil
}
func (f *fakePlant) LastTemperature() float64 { return f.current }
func (f *fakePlant) HeatPower() float64 { return f.power }
func (f *fakePlant) PIDTerms() (p, i, d float64) { return f.pTerm, f.iTerm, f.dTerm }

func send(t *testing.T, p *Processor, bytes string) {
	t.Helper()
	for i := 0; i < len(bytes); i++ {
		if err := p.HandleByte(bytes[i]); err != nil {
			t.Fatalf("HandleByte(%q): %v", bytes[i], err)
		}
	}
}

func TestStatusLineFormat(t *testing.T) {
	plant := &fakePlant{
		p: 30.0, i: 0.5, d: 0.1,
		target:  200.0,
		current: 199.95,
		power:   450,
	}
	var out bytes.Buffer
	proc := New(plant, &out, 0)

	if err := proc.PrintStatus(); err != nil {
		t.Fatalf("PrintStatus: %v", err)
	}

	want := "SET TEMP:200.00, CUR TEMP:199.95, GAINS p:30.00 i:0.50 d:0.10, Delta: 1.00, Power: 450\r\n"
	if got := out.String(); got != want {
		t.Errorf("status line:\n got %q\nwant %q", got, want)
	}
}

func TestGraphLineFormat(t *testing.T) {
	plant := &fakePlant{
		p: 30.0, i: 0.5, d: 0.1,
		target:  200.0,
		current: 199.95,
		power:   450,
	}
	var out bytes.Buffer
	proc := New(plant, &out, 0)

	if err := proc.PrintStatusForGraph(); err != nil {
		t.Fatalf("PrintStatusForGraph: %v", err)
	}

	want := "200.00, 199.95, 30.00, 0.50, 0.10, 450\n"
	if got := out.String(); got != want {
		t.Errorf("graph line:\n got %q\nwant %q", got, want)
	}
}

func TestGainAdjustment(t *testing.T) {
	plant := &fakePlant{p: 30.0, i: 1.0, d: 0.5, target: 200.0}
	proc := New(plant, &bytes.Buffer{}, 0)

	send(t, proc, "P")
	if plant.p != 31.0 {
		t.Errorf("P after 'P': got %v, want 31", plant.p)
	}
	send(t, proc, "pp")
	if plant.p != 29.0 {
		t.Errorf("P after 'pp': got %v, want 29", plant.p)
	}
	send(t, proc, "I")
	send(t, proc, "d")
	send(t, proc, "T")
	send(t, proc, "t")
	send(t, proc, "t")
	if plant.i != 2.0 || plant.d != -0.5 || plant.target != 199.0 {
		t.Errorf("after adjustments: i=%v d=%v target=%v", plant.i, plant.d, plant.target)
	}
}

func TestDeltaScaling(t *testing.T) {
	plant := &fakePlant{p: 0}
	proc := New(plant, &bytes.Buffer{}, 0)

	send(t, proc, "+")
	if got := proc.Delta(); got != 10.0 {
		t.Errorf("delta after '+': got %v, want 10", got)
	}
	send(t, proc, "++")
	if got := proc.Delta(); got != 100.0 {
		t.Errorf("delta clamped high: got %v, want 100", got)
	}

	send(t, proc, "------")
	if got := proc.Delta(); got != 0.01 {
		t.Errorf("delta clamped low: got %v, want 0.01", got)
	}
}

func TestResetCommand(t *testing.T) {
	plant := &fakePlant{p: 1, i: 2, d: 3, target: 99}
	proc := New(plant, &bytes.Buffer{}, 0)

	send(t, proc, "R")
	if plant.p != 30.0 || plant.i != 0.0 || plant.d != 0.0 || plant.target != 200.0 {
		t.Errorf("after R: p=%v i=%v d=%v target=%v", plant.p, plant.i, plant.d, plant.target)
	}
}

func TestUnknownBytesIgnored(t *testing.T) {
	plant := &fakePlant{p: 30.0}
	var out bytes.Buffer
	proc := New(plant, &out, 0)

	send(t, proc, "xyz123\r\n\x00")
	if out.Len() != 0 {
		t.Errorf("unexpected output for unknown bytes: %q", out.String())
	}
	if plant.p != 30.0 {
		t.Errorf("plant state changed by unknown bytes: p=%v", plant.p)
	}
}

func TestPIDDebugLine(t *testing.T) {
	plant := &fakePlant{pTerm: 1500, iTerm: 25.5, dTerm: 3, power: 1000}
	var out bytes.Buffer
	proc := New(plant, &out, 0)

	send(t, proc, "b")
	want := "PID formula (P + I - D): 1500.00 + 25.50 - 3.00 POWER: 1000 \r\n"
	if got := out.String(); got != want {
		t.Errorf("debug line:\n got %q\nwant %q", got, want)
	}
}

func TestHelpListsEveryCommand(t *testing.T) {
	plant := &fakePlant{}
	var out bytes.Buffer
	proc := New(plant, &out, 0)

	send(t, proc, "?")
	help := out.String()
	for _, cmd := range []string{"<space>", "u :", "g :", "R :", "b :", "? :", "+/-", "P/p", "I/i", "D/d", "T/t"} {
		if !strings.Contains(help, cmd) {
			t.Errorf("help missing %q", cmd)
		}
	}
}

func TestWelcomeBanner(t *testing.T) {
	var out bytes.Buffer
	proc := New(&fakePlant{}, &out, 0)

	if err := proc.PrintWelcome(); err != nil {
		t.Fatalf("PrintWelcome: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Hot Plate Solder System") {
		t.Errorf("banner missing title: %q", got)
	}
	if !strings.Contains(got, "enter 'R' to Reset") {
		t.Errorf("banner missing reset hint: %q", got)
	}
	if !strings.HasSuffix(got, "\r\n") {
		t.Error("banner lines should be CRLF terminated")
	}
}

func TestAutoPrintDisabledByDefault(t *testing.T) {
	plant := &fakePlant{}
	var out bytes.Buffer
	proc := New(plant, &out, 200)

	for now := uint32(0); now <= 2000; now += 50 {
		if err := proc.AutoPrint(now); err != nil {
			t.Fatalf("AutoPrint: %v", err)
		}
	}
	if out.Len() != 0 {
		t.Errorf("output while auto-print disabled: %q", out.String())
	}
}

func TestAutoPrintCadence(t *testing.T) {
	plant := &fakePlant{target: 200}
	var out bytes.Buffer
	proc := New(plant, &out, 200)

	send(t, proc, "u")
	for now := uint32(0); now <= 1000; now += 50 {
		if err := proc.AutoPrint(now); err != nil {
			t.Fatalf("AutoPrint: %v", err)
		}
	}

	lines := strings.Count(out.String(), "\r\n")
	// The baseline advances by one interval per print, so with 50ms
	// ticks the line fires at 250, 450, 650 and 850.
	if lines != 4 {
		t.Errorf("auto-print lines in 1s: got %d, want 4", lines)
	}
}

func TestAutoPrintGraphMode(t *testing.T) {
	plant := &fakePlant{target: 200}
	var out bytes.Buffer
	proc := New(plant, &out, 200)

	send(t, proc, "ug")
	if err := proc.AutoPrint(250); err != nil {
		t.Fatalf("AutoPrint: %v", err)
	}
	got := out.String()
	if strings.Contains(got, "SET TEMP") || !strings.HasSuffix(got, "\n") || strings.Contains(got, "\r") {
		t.Errorf("graph mode output: %q", got)
	}
}

func TestAutoPrintCounterWrap(t *testing.T) {
	plant := &fakePlant{}
	var out bytes.Buffer
	proc := New(plant, &out, 200)

	send(t, proc, "u")
	proc.lastPrint = 4294967000

	// Counter wraps; the baseline resets and printing continues.
	if err := proc.AutoPrint(250); err != nil {
		t.Fatalf("AutoPrint after wrap: %v", err)
	}
	if out.Len() == 0 {
		t.Error("expected a status line after counter wrap")
	}
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		value  float64
		places int
		want   string
	}{
		{200.0, 2, "200.00"},
		{199.95, 2, "199.95"},
		{0.5, 2, "0.50"},
		{0.125, 2, "0.13"},   // half rounds away from zero
		{-0.125, 2, "-0.13"}, // also when negative
		{450.0, 0, "450"},
		{1500.75, 0, "1501"},
		{-0.001, 2, "0.00"}, // no negative zero
	}
	for _, c := range cases {
		if got := formatFloat(c.value, c.places); got != c.want {
			t.Errorf("formatFloat(%v, %d): got %q, want %q", c.value, c.places, got, c.want)
		}
	}
}
