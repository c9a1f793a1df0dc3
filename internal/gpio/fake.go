package gpio

import "errors"

// FakeRelay records relay transitions for test assertions.
type FakeRelay struct {
	// On is the current relay state.
	On bool

	// Transitions records every state change, in order. Redundant Set
	// calls (same state) are not recorded.
	Transitions []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeRelay creates a FakeRelay, initially off.
func NewFakeRelay() *FakeRelay {
	return &FakeRelay{}
}

// Set drives the fake relay, recording state changes.
func (f *FakeRelay) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	if on != f.On {
		f.On = on
		f.Transitions = append(f.Transitions, on)
	}
	return nil
}

// Close marks the relay as closed.
func (f *FakeRelay) Close() error {
	f.Closed = true
	return nil
}

// FakeSensorLine feeds scripted bits to the watch handler, standing in
// for the IR thermometer.
type FakeSensorLine struct {
	handler func(dataHigh bool)

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSensorLine creates a FakeSensorLine with no handler installed.
func NewFakeSensorLine() *FakeSensorLine {
	return &FakeSensorLine{}
}

// Watch installs the edge handler.
func (f *FakeSensorLine) Watch(handler func(dataHigh bool)) error {
	if f.handler != nil {
		return errors.New("handler already installed")
	}
	f.handler = handler
	return nil
}

// FeedBit simulates one falling clock edge with the given data level.
func (f *FakeSensorLine) FeedBit(dataHigh bool) {
	if f.handler != nil {
		f.handler(dataHigh)
	}
}

// FeedByte simulates a full byte, MSB first, as the sensor clocks it out.
func (f *FakeSensorLine) FeedByte(b byte) {
	for i := 7; i >= 0; i-- {
		f.FeedBit(b&(1<<i) != 0)
	}
}

// FeedMessage simulates a complete sensor message: the payload bytes
// followed by the 0x0D delimiter.
func (f *FakeSensorLine) FeedMessage(payload ...byte) {
	for _, b := range payload {
		f.FeedByte(b)
	}
	f.FeedByte(0x0D)
}

// Close marks the line as closed.
func (f *FakeSensorLine) Close() error {
	f.Closed = true
	return nil
}
