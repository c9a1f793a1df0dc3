// Package store persists controller parameters as floats at fixed
// 4-byte-aligned slots, an EEPROM-style settings image. The real
// implementation is a small settings file; the in-memory implementation
// backs tests.
package store

// Slot addresses. Values are 4 bytes each, hence 0, 4, 8, 12.
const (
	SlotPGain  = 0
	SlotIGain  = 4
	SlotDGain  = 8
	SlotTarget = 12
)

// Store reads and writes floats at fixed slots. Writes are not
// transactional; a write interrupted by power loss leaves the slot
// undefined (accepted risk).
type Store interface {
	// ReadFloat returns the value at the slot. Never-written slots read
	// as zero.
	ReadFloat(slot int) (float64, error)

	// WriteFloat stores the value at the slot.
	WriteFloat(slot int, value float64) error

	// Close releases the backing resource.
	Close() error
}
