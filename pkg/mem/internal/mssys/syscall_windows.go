//go:generate go run golang.org/x/sys/windows/mkwinsyscall -output zsyscall_windows.go syscall_windows.go

package mssys

import (
	"syscall"

	"golang.org/x/sys/windows"
)

const (
	MEM_COMMIT  = 0x00001000
	MEM_RESERVE = 0x00002000
	MEM_RELEASE = 0x00008000

	PAGE_NOACCESS          = 0x01
	PAGE_READONLY          = 0x02
	PAGE_READWRITE         = 0x04
	PAGE_WRITECOPY         = 0x08
	PAGE_EXECUTE           = 0x10
	PAGE_EXECUTE_READ      = 0x20
	PAGE_EXECUTE_READWRITE = 0x40
	PAGE_EXECUTE_WRITECOPY = 0x80

	ERROR_INVALID_HANDLE    syscall.Errno = 6
	ERROR_INVALID_PARAMETER syscall.Errno = 87
	ERROR_PARTIAL_COPY      syscall.Errno = 299
)

// CurrentProcess returns the pseudo-handle of the calling process.
// Its value is ^uintptr(0), the same bit pattern as INVALID_HANDLE_VALUE.
func CurrentProcess() windows.Handle {
	return windows.CurrentProcess()
}

// LastError returns the calling thread's last error code, or fallback if
// the OS reports success. Callers lock the OS thread across the call whose
// code they want; otherwise the goroutine may have moved threads.
func LastError(fallback syscall.Errno) error {
	if err := windows.GetLastError(); err != nil {
		if errno, ok := err.(syscall.Errno); ok && errno != 0 {
			return errno
		}
	}
	return fallback
}

//sys	VirtualAlloc(address uintptr, size uintptr, alloctype uint32, protect uint32) (value uintptr, err error) = kernel32.VirtualAlloc
//sys	VirtualAllocEx(process windows.Handle, address uintptr, size uintptr, alloctype uint32, protect uint32) (value uintptr, err error) = kernel32.VirtualAllocEx
//sys	VirtualFree(address uintptr, size uintptr, freetype uint32) (err error) = kernel32.VirtualFree
//sys	VirtualFreeEx(process windows.Handle, address uintptr, size uintptr, freetype uint32) (err error) = kernel32.VirtualFreeEx
//sys	ReadProcessMemory(process windows.Handle, baseaddr uintptr, buffer *byte, size uintptr, bytesread *uintptr) (err error) = kernel32.ReadProcessMemory
//sys	WriteProcessMemory(process windows.Handle, baseaddr uintptr, buffer *byte, size uintptr, byteswritten *uintptr) (err error) = kernel32.WriteProcessMemory
