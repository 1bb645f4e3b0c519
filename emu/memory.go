package emu

import "encoding/binary"

// DefaultMemorySize is the size of the emulated RAM (1 MiB).
const DefaultMemorySize uint32 = 1 << 20

// Memory is a flat, zero-initialized, byte-addressable RAM starting at
// address 0. Every accessor is bounds-checked and reports an *AccessError
// instead of touching bytes outside the buffer.
type Memory struct {
	data []byte
}

// NewMemory creates a memory of DefaultMemorySize bytes.
func NewMemory() *Memory {
	return NewMemoryWithSize(DefaultMemorySize)
}

// NewMemoryWithSize creates a memory of the given size in bytes.
func NewMemoryWithSize(size uint32) *Memory {
	return &Memory{data: make([]byte, size)}
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.data))
}

// slice returns the n bytes at addr, or an *AccessError.
func (m *Memory) slice(addr uint32, n int) ([]byte, error) {
	end := uint64(addr) + uint64(n)
	if end > uint64(len(m.data)) {
		return nil, &AccessError{Addr: addr, Size: n, Limit: m.Size()}
	}
	return m.data[addr:end], nil
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint32) (uint8, error) {
	b, err := m.slice(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Read16 reads a little-endian halfword.
func (m *Memory) Read16(addr uint32) (uint16, error) {
	b, err := m.slice(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint32) (uint32, error) {
	b, err := m.slice(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint32, value uint8) error {
	b, err := m.slice(addr, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint32, value uint16) error {
	b, err := m.slice(addr, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint32, value uint32) error {
	b, err := m.slice(addr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

// WriteBytes copies data into memory starting at addr.
func (m *Memory) WriteBytes(addr uint32, data []byte) error {
	b, err := m.slice(addr, len(data))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

// ReadBytes returns a copy of n bytes starting at addr.
func (m *Memory) ReadBytes(addr uint32, n int) ([]byte, error) {
	b, err := m.slice(addr, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Zero clears n bytes starting at addr.
func (m *Memory) Zero(addr uint32, n int) error {
	b, err := m.slice(addr, n)
	if err != nil {
		return err
	}
	clear(b)
	return nil
}
