package mem

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"
)

// Handle identifies a target process.
type Handle uintptr

// NullHandle never names a process. On Windows INVALID_HANDLE_VALUE shares
// its bit pattern with the current process pseudo-handle, so the zero
// handle is used as the invalid sentinel instead.
const NullHandle Handle = 0

func (h Handle) String() string {
	return fmt.Sprintf("%#x", uintptr(h))
}

// WordSize is the size in bytes of a machine word, the unit read at every
// step of a pointer chain.
const WordSize = int(unsafe.Sizeof(uintptr(0)))

// Protection is a page protection constant passed to the allocator.
type Protection uint32

const (
	ProtNoAccess         Protection = 0x01
	ProtReadOnly         Protection = 0x02
	ProtReadWrite        Protection = 0x04
	ProtWriteCopy        Protection = 0x08
	ProtExecute          Protection = 0x10
	ProtExecuteRead      Protection = 0x20
	ProtExecuteReadWrite Protection = 0x40
	ProtExecuteWriteCopy Protection = 0x80

	// DefaultProtection is used by every allocator unless overridden.
	DefaultProtection = ProtExecuteReadWrite
)

// Uint128 is an unsigned 128 bit integer split in two little-endian halves.
type Uint128 struct {
	Lo, Hi uint64
}

func (u Uint128) String() string {
	if u.Hi == 0 {
		return fmt.Sprintf("%#x", u.Lo)
	}
	return fmt.Sprintf("%#x%016x", u.Hi, u.Lo)
}

// Errno returns the OS error code carried by err.
func Errno(err error) (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}

// Code returns the numeric OS error code carried by err, or 0 if err is
// nil or not an OS error.
func Code(err error) uint32 {
	errno, _ := Errno(err)
	return uint32(errno)
}

func bufptr(b []byte) *byte {
	if len(b) == 0 {
		return nil
	}
	return &b[0]
}
