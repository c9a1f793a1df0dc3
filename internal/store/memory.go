package store

// Memory is an in-memory Store for tests.
type Memory struct {
	// Slots holds the stored values, keyed by slot address.
	Slots map[int]float64

	// ReadError and WriteError, if set, are returned by the respective
	// operations.
	ReadError  error
	WriteError error

	// Writes counts WriteFloat calls, for asserting persistence behavior.
	Writes int

	// Closed tracks if Close was called.
	Closed bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{Slots: make(map[int]float64)}
}

// ReadFloat returns the value at the slot; unwritten slots read as zero.
func (m *Memory) ReadFloat(slot int) (float64, error) {
	if m.ReadError != nil {
		return 0, m.ReadError
	}
	return m.Slots[slot], nil
}

// WriteFloat stores the value at the slot.
func (m *Memory) WriteFloat(slot int, value float64) error {
	if m.WriteError != nil {
		return m.WriteError
	}
	m.Slots[slot] = value
	m.Writes++
	return nil
}

// Close marks the store as closed.
func (m *Memory) Close() error {
	m.Closed = true
	return nil
}
