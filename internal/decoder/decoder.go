// Package decoder reconstructs 4-byte messages from the IR thermometer's
// clocked serial output. The sensor drives a clock line and a data line;
// one bit is sampled on every falling clock edge.
//
// The decoder is a single-producer/single-consumer handoff: ClockEdge is
// called from the GPIO edge-event goroutine, everything else from the
// control loop. The ready flag is the only release/acquire point: the
// frame buffer is written only while the flag is clear and read only
// after observing it set.
package decoder

import "sync/atomic"

// FrameLen is the fixed payload length of a sensor message.
const FrameLen = 4

// delimiter terminates every sensor message.
const delimiter = 0x0D

// byteValid marks the debug peek slot as holding an unread byte. It sits
// above bit 7 so a value of zero is distinguishable from an empty slot.
const byteValid = 0x100

// Frame is one complete sensor message, delimiter stripped.
type Frame [FrameLen]byte

// Decoder accumulates bits into bytes and bytes into frames.
type Decoder struct {
	// Producer-owned. Touched only inside ClockEdge.
	acc    byte
	nbits  int
	frame  Frame
	nbytes int

	// ready is set by the producer when a delimiter completes a frame and
	// cleared by the consumer once the frame has been copied out. While it
	// is set the producer drops incoming bytes rather than overwrite an
	// unconsumed frame.
	ready atomic.Bool

	// resetReq defers a consumer-side reset to the next clock edge, where
	// the producer-owned counters can be cleared without a race. Until
	// edges resume the counters are unobservable anyway.
	resetReq atomic.Bool

	// lastByte is a debug peek slot holding the most recent completed
	// byte. It is independent of frame assembly.
	lastByte atomic.Uint32
}

// New returns a Decoder ready to receive clock edges.
func New() *Decoder {
	return &Decoder{}
}

// ClockEdge records the data-line level sampled at a falling clock edge.
// It is the only method safe to call from the edge-event goroutine. It
// never blocks and never allocates.
func (d *Decoder) ClockEdge(dataHigh bool) {
	if d.resetReq.CompareAndSwap(true, false) {
		d.acc = 0
		d.nbits = 0
		d.nbytes = 0
	}

	var bit byte
	if dataHigh {
		bit = 1
	}
	d.acc = d.acc<<1 | bit
	d.nbits++
	if d.nbits < 8 {
		return
	}

	b := d.acc
	d.acc = 0
	d.nbits = 0

	// Offer the byte to the debug peek slot, but never overwrite one that
	// has not been read yet.
	d.lastByte.CompareAndSwap(0, uint32(b)|byteValid)

	if b == delimiter {
		d.nbytes = 0
		d.ready.Store(true)
		return
	}
	if d.ready.Load() {
		// Previous frame not consumed yet; drop the byte.
		return
	}
	if d.nbytes < FrameLen {
		d.frame[d.nbytes] = b
		d.nbytes++
	}
	// Bytes beyond FrameLen are discarded until the next delimiter.
}

// TakeFrame returns the pending frame, if any, and hands the buffer back
// to the producer. Must only be called from the consumer side.
func (d *Decoder) TakeFrame() (Frame, bool) {
	if !d.ready.Load() {
		return Frame{}, false
	}
	f := d.frame
	d.ready.Store(false)
	return f, true
}

// PeekByte returns the most recent completed byte, if one is waiting, and
// clears the peek slot. Debug aid only; consuming it does not disturb
// frame assembly.
func (d *Decoder) PeekByte() (byte, bool) {
	v := d.lastByte.Swap(0)
	if v == 0 {
		return 0, false
	}
	return byte(v), true
}

// ForceReset discards any partial message state. Called by the sensor
// service when the line has gone quiet for too long. The pending frame
// and peek slot are dropped immediately; the bit and byte counters are
// cleared at the next clock edge.
func (d *Decoder) ForceReset() {
	d.resetReq.Store(true)
	d.ready.Store(false)
	d.lastByte.Store(0)
}
