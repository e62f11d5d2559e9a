package mem

import (
	"encoding/binary"
	"math"

	"github.com/undoio/memwar/pkg/logflags"
)

// Write copies data to addr and returns the number of bytes transferred.
func (a Allocation) Write(addr uintptr, data []byte) (int, error) {
	return VMWrite(a.process, addr, data)
}

// WriteOffset writes data at Base()+off.
func (a Allocation) WriteOffset(off uintptr, data []byte) (int, error) {
	return a.Write(a.base+off, data)
}

// WriteAtBase writes data at Base().
func (a Allocation) WriteAtBase(data []byte) (int, error) {
	return a.WriteOffset(0, data)
}

func (a Allocation) WriteU8(addr uintptr, v uint8) (int, error) {
	return a.Write(addr, []byte{v})
}

func (a Allocation) WriteU16(addr uintptr, v uint16) (int, error) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return a.Write(addr, buf[:])
}

func (a Allocation) WriteU32(addr uintptr, v uint32) (int, error) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return a.Write(addr, buf[:])
}

func (a Allocation) WriteU64(addr uintptr, v uint64) (int, error) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return a.Write(addr, buf[:])
}

func (a Allocation) WriteI32(addr uintptr, v int32) (int, error) {
	return a.WriteU32(addr, uint32(v))
}

func (a Allocation) WriteF32(addr uintptr, v float32) (int, error) {
	return a.WriteU32(addr, math.Float32bits(v))
}

func (a Allocation) WriteF64(addr uintptr, v float64) (int, error) {
	return a.WriteU64(addr, math.Float64bits(v))
}

// WriteUintptr writes a machine word at addr.
func (a Allocation) WriteUintptr(addr uintptr, v uintptr) (int, error) {
	var buf [WordSize]byte
	encodeWord(buf[:], v)
	return a.Write(addr, buf[:])
}

func (a Allocation) WriteU16Offset(off uintptr, v uint16) (int, error) {
	return a.WriteU16(a.base+off, v)
}

func (a Allocation) WriteU32Offset(off uintptr, v uint32) (int, error) {
	return a.WriteU32(a.base+off, v)
}

func (a Allocation) WriteI32Offset(off uintptr, v int32) (int, error) {
	return a.WriteI32(a.base+off, v)
}

func (a Allocation) WriteF32Offset(off uintptr, v float32) (int, error) {
	return a.WriteF32(a.base+off, v)
}

// WriteBoolOffset writes 0x01 or 0x00 at Base()+off.
func (a Allocation) WriteBoolOffset(off uintptr, v bool) (int, error) {
	var b uint8
	if v {
		b = 1
	}
	return a.WriteU8(a.base+off, b)
}

// WriteAllBuffered writes all of data at Base() in chunks of at most chunk
// bytes. See WriteAllBufferedOffset.
func (a Allocation) WriteAllBuffered(data []byte, chunk int) error {
	return a.WriteAllBufferedOffset(0, data, chunk)
}

// WriteAllBufferedOffset writes all of data at Base()+off in chunks of at
// most chunk bytes. After every chunk the destination advances by the
// number of bytes the OS reported as written, so a short write is resumed
// rather than reported. Only an explicit OS failure stops the loop, in
// which case that error is returned.
func (a Allocation) WriteAllBufferedOffset(off uintptr, data []byte, chunk int) error {
	if chunk <= 0 {
		return errInvalidParameter
	}
	total := 0
	for total < len(data) {
		n := len(data) - total
		if n > chunk {
			n = chunk
		}
		written, err := a.WriteOffset(off+uintptr(total), data[total:total+n])
		if err != nil {
			if logflags.Mem() {
				logflags.MemLogger().WithError(err).Debugf("buffered write to %#x stopped after %d of %d bytes", a.base+off, total, len(data))
			}
			return err
		}
		if written == 0 {
			// No progress: the loop would never terminate.
			return shortTransfer()
		}
		total += written
	}
	if logflags.Mem() {
		logflags.MemLogger().Debugf("buffered write of %d bytes to %#x in chunks of %d", len(data), a.base+off, chunk)
	}
	return nil
}
