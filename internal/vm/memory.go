package vm

import "fmt"

// Memory is the 4 KB byte-addressable address space.
type Memory [MemorySize]byte

func (m *Memory) Read(addr uint16) (byte, error) {
	if int(addr) >= MemorySize {
		return 0, outOfBounds(addr)
	}

	return m[addr], nil
}

func (m *Memory) Write(addr uint16, value byte) error {
	if int(addr) >= MemorySize {
		return outOfBounds(addr)
	}

	m[addr] = value
	return nil
}

// ReadWord reads a big-endian word: addr holds the high byte.
func (m *Memory) ReadWord(addr uint16) (uint16, error) {
	if int(addr)+1 >= MemorySize {
		return 0, outOfBounds(addr)
	}

	hi := m[addr]
	lo := m[addr+1]
	return uint16(hi)<<8 | uint16(lo), nil
}

// Slice returns n bytes starting at addr without copying.
func (m *Memory) Slice(addr uint16, n int) ([]byte, error) {
	if int(addr)+n > MemorySize {
		return nil, outOfBounds(addr)
	}

	return m[int(addr) : int(addr)+n], nil
}

func outOfBounds(addr uint16) error {
	return fmt.Errorf("%w: 0x%04x", ErrOutOfBounds, addr)
}
