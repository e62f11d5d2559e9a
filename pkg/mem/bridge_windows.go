package mem

import (
	"runtime"

	"golang.org/x/sys/windows"

	"github.com/undoio/memwar/pkg/mem/internal/mssys"
)

var (
	errInvalidHandle    error = mssys.ERROR_INVALID_HANDLE
	errInvalidParameter error = mssys.ERROR_INVALID_PARAMETER
)

// currentProcess returns the pseudo-handle of the calling process.
func currentProcess() (Handle, error) {
	h := Handle(mssys.CurrentProcess())
	if h == NullHandle {
		return NullHandle, mssys.LastError(mssys.ERROR_INVALID_HANDLE)
	}
	return h, nil
}

// shortTransfer is the error reported when the OS accepted a transfer but
// made no progress. The call succeeded, so the thread's last error says
// nothing about it and is not consulted.
func shortTransfer() error {
	return mssys.ERROR_PARTIAL_COPY
}

// vmReadFull reads exactly len(dst) bytes at addr in process h. The OS
// thread stays locked from the call until its last error is read, so a
// short count is reported with the code the read left on that thread.
// ERROR_PARTIAL_COPY stands in when the OS left none.
func vmReadFull(h Handle, addr uintptr, dst []byte) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	n, err := VMRead(h, addr, dst)
	if err != nil {
		return err
	}
	if n < len(dst) {
		return mssys.LastError(mssys.ERROR_PARTIAL_COPY)
	}
	return nil
}

// VMAlloc reserves and commits size bytes in the current process.
// If base is zero the OS chooses the address.
func VMAlloc(base, size uintptr, prot Protection) (uintptr, error) {
	return mssys.VirtualAlloc(base, size, mssys.MEM_COMMIT|mssys.MEM_RESERVE, uint32(prot))
}

// VMAllocEx reserves and commits size bytes in process h.
// If base is zero the OS chooses the address.
func VMAllocEx(h Handle, base, size uintptr, prot Protection) (uintptr, error) {
	if h == NullHandle {
		return 0, errInvalidHandle
	}
	return mssys.VirtualAllocEx(windows.Handle(h), base, size, mssys.MEM_COMMIT|mssys.MEM_RESERVE, uint32(prot))
}

// VMFree releases the whole reservation starting at base in the current
// process.
func VMFree(base uintptr) error {
	return mssys.VirtualFree(base, 0, mssys.MEM_RELEASE)
}

// VMFreeEx releases the whole reservation starting at base in process h.
func VMFreeEx(h Handle, base uintptr) error {
	if h == NullHandle {
		return errInvalidHandle
	}
	return mssys.VirtualFreeEx(windows.Handle(h), base, 0, mssys.MEM_RELEASE)
}

// VMRead copies up to len(dst) bytes at addr in process h into dst and
// returns the number of bytes transferred.
func VMRead(h Handle, addr uintptr, dst []byte) (int, error) {
	var count uintptr
	err := mssys.ReadProcessMemory(windows.Handle(h), addr, bufptr(dst), uintptr(len(dst)), &count)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// VMWrite copies src to addr in process h and returns the number of bytes
// transferred.
func VMWrite(h Handle, addr uintptr, src []byte) (int, error) {
	var count uintptr
	err := mssys.WriteProcessMemory(windows.Handle(h), addr, bufptr(src), uintptr(len(src)), &count)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
