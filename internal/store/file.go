package store

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// File is a Store backed by a flat settings file. Each slot is a
// little-endian float32 at its own byte offset, so the file is
// byte-compatible with the 4-byte EEPROM slots it replaces.
type File struct {
	f *os.File
}

// OpenFile opens (or creates) the settings file at path.
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open settings file: %w", err)
	}
	return &File{f: f}, nil
}

// ReadFloat returns the value at the slot. Slots beyond the end of the
// file read as zero, so a fresh file behaves like blank storage.
func (s *File) ReadFloat(slot int) (float64, error) {
	var buf [4]byte
	n, err := s.f.ReadAt(buf[:], int64(slot))
	if err == io.EOF && n < len(buf) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read slot %d: %w", slot, err)
	}
	bits := binary.LittleEndian.Uint32(buf[:])
	return float64(math.Float32frombits(bits)), nil
}

// WriteFloat stores the value at the slot.
func (s *File) WriteFloat(slot int, value float64) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(value)))
	if _, err := s.f.WriteAt(buf[:], int64(slot)); err != nil {
		return fmt.Errorf("write slot %d: %w", slot, err)
	}
	return nil
}

// Close closes the settings file.
func (s *File) Close() error {
	return s.f.Close()
}
