package mem

import (
	"encoding/binary"
	"math"
)

// Read copies up to len(buf) bytes at addr into buf and returns the number
// of bytes transferred. A short read is not an error.
func (a Allocation) Read(addr uintptr, buf []byte) (int, error) {
	return VMRead(a.process, addr, buf)
}

// ReadFull reads exactly len(buf) bytes at addr. If the OS transfers fewer
// bytes the OS error left by that read is returned.
func (a Allocation) ReadFull(addr uintptr, buf []byte) error {
	return vmReadFull(a.process, addr, buf)
}

// ReadOffset reads up to len(buf) bytes at Base()+off.
func (a Allocation) ReadOffset(off uintptr, buf []byte) (int, error) {
	return a.Read(a.base+off, buf)
}

// ReadAtBase reads up to len(buf) bytes at Base().
func (a Allocation) ReadAtBase(buf []byte) (int, error) {
	return a.ReadOffset(0, buf)
}

func (a Allocation) ReadU8(addr uintptr) (uint8, error) {
	var buf [1]byte
	if err := a.ReadFull(addr, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (a Allocation) ReadU16(addr uintptr) (uint16, error) {
	var buf [2]byte
	if err := a.ReadFull(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (a Allocation) ReadU32(addr uintptr) (uint32, error) {
	var buf [4]byte
	if err := a.ReadFull(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (a Allocation) ReadU64(addr uintptr) (uint64, error) {
	var buf [8]byte
	if err := a.ReadFull(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (a Allocation) ReadU128(addr uintptr) (Uint128, error) {
	var buf [16]byte
	if err := a.ReadFull(addr, buf[:]); err != nil {
		return Uint128{}, err
	}
	return Uint128{
		Lo: binary.LittleEndian.Uint64(buf[:8]),
		Hi: binary.LittleEndian.Uint64(buf[8:]),
	}, nil
}

func (a Allocation) ReadI16(addr uintptr) (int16, error) {
	v, err := a.ReadU16(addr)
	return int16(v), err
}

func (a Allocation) ReadI32(addr uintptr) (int32, error) {
	v, err := a.ReadU32(addr)
	return int32(v), err
}

func (a Allocation) ReadI64(addr uintptr) (int64, error) {
	v, err := a.ReadU64(addr)
	return int64(v), err
}

func (a Allocation) ReadF32(addr uintptr) (float32, error) {
	v, err := a.ReadU32(addr)
	return math.Float32frombits(v), err
}

func (a Allocation) ReadF64(addr uintptr) (float64, error) {
	v, err := a.ReadU64(addr)
	return math.Float64frombits(v), err
}

// ReadUintptr reads a machine word at addr.
func (a Allocation) ReadUintptr(addr uintptr) (uintptr, error) {
	var buf [WordSize]byte
	if err := a.ReadFull(addr, buf[:]); err != nil {
		return 0, err
	}
	return decodeWord(buf[:]), nil
}

// ReadBoolOffset reads one byte at Base()+off; any non-zero value is true.
func (a Allocation) ReadBoolOffset(off uintptr) (bool, error) {
	v, err := a.ReadU8(a.base + off)
	return v != 0, err
}

func (a Allocation) ReadU32Offset(off uintptr) (uint32, error) {
	return a.ReadU32(a.base + off)
}

func (a Allocation) ReadF32Offset(off uintptr) (float32, error) {
	return a.ReadF32(a.base + off)
}

func decodeWord(b []byte) uintptr {
	if WordSize == 8 {
		return uintptr(binary.LittleEndian.Uint64(b))
	}
	return uintptr(binary.LittleEndian.Uint32(b))
}

func encodeWord(b []byte, v uintptr) {
	if WordSize == 8 {
		binary.LittleEndian.PutUint64(b, uint64(v))
		return
	}
	binary.LittleEndian.PutUint32(b, uint32(v))
}
