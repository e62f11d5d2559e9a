package memory

import (
	"github.com/undoio/memwar/pkg/mem"
)

// ReadWriter reads and writes whole byte ranges of a process.
type ReadWriter interface {
	Read(uint64, int) ([]byte, error)
	Write(uint64, []byte) (int, error)
	Swap(uint64, []byte) ([]byte, error)
}

// processMemory is the part of mem.Allocation that Process uses.
type processMemory interface {
	ReadFull(addr uintptr, buf []byte) error
	Write(addr uintptr, data []byte) (int, error)
}

// Process adapts an Allocation to ReadWriter. Addresses passed to its
// methods are absolute.
type Process struct {
	mem processMemory
}

var _ ReadWriter = &Process{}

func New(alloc mem.Allocation) *Process {
	return &Process{mem: alloc}
}

// Read returns exactly size bytes at addr.
func (p *Process) Read(addr uint64, size int) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	if err := p.mem.ReadFull(uintptr(addr), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Write writes all of data at addr. A write the OS cuts short fails with
// ERROR_PARTIAL_COPY and reports how many bytes landed.
func (p *Process) Write(addr uint64, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	n, err := p.mem.Write(uintptr(addr), data)
	if err != nil {
		return n, err
	}
	if n < len(data) {
		return n, errPartialCopy
	}
	return n, nil
}

// Swap writes data at addr and returns the bytes it replaced.
func (p *Process) Swap(addr uint64, data []byte) ([]byte, error) {
	originalData, err := p.Read(addr, len(data))
	if err != nil {
		return nil, err
	}
	if _, err := p.Write(addr, data); err != nil {
		return nil, err
	}
	return originalData, nil
}

// Buffer is a ReadWriter over a byte slice mapped at Addr.
type Buffer struct {
	Addr uint64
	Data []byte
}

var _ ReadWriter = &Buffer{}

func (b *Buffer) contains(addr uint64, size int) bool {
	return addr >= b.Addr && (addr+uint64(size)) <= (b.Addr+uint64(len(b.Data)))
}

func (b *Buffer) Read(addr uint64, size int) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	if !b.contains(addr, size) {
		return nil, errPartialCopy
	}
	d := make([]byte, size)
	copy(d, b.Data[addr-b.Addr:])
	return d, nil
}

func (b *Buffer) Write(addr uint64, data []byte) (int, error) {
	if !b.contains(addr, len(data)) {
		return 0, errPartialCopy
	}
	return copy(b.Data[addr-b.Addr:], data), nil
}

func (b *Buffer) Swap(addr uint64, data []byte) ([]byte, error) {
	originalData, err := b.Read(addr, len(data))
	if err != nil {
		return nil, err
	}
	if _, err := b.Write(addr, data); err != nil {
		return nil, err
	}
	return originalData, nil
}
