//go:build !windows
// +build !windows

package mem

import "syscall"

var (
	errInvalidHandle    error = syscall.EBADF
	errInvalidParameter error = syscall.EINVAL
)

func currentProcess() (Handle, error) {
	return NullHandle, syscall.ENOSYS
}

func shortTransfer() error {
	return syscall.EIO
}

func vmReadFull(h Handle, addr uintptr, dst []byte) error {
	n, err := VMRead(h, addr, dst)
	if err != nil {
		return err
	}
	if n < len(dst) {
		return shortTransfer()
	}
	return nil
}

// VMAlloc is only implemented on Windows.
func VMAlloc(base, size uintptr, prot Protection) (uintptr, error) {
	return 0, syscall.ENOSYS
}

// VMAllocEx is only implemented on Windows.
func VMAllocEx(h Handle, base, size uintptr, prot Protection) (uintptr, error) {
	return 0, syscall.ENOSYS
}

// VMFree is only implemented on Windows.
func VMFree(base uintptr) error {
	return syscall.ENOSYS
}

// VMFreeEx is only implemented on Windows.
func VMFreeEx(h Handle, base uintptr) error {
	return syscall.ENOSYS
}

// VMRead is only implemented on Windows.
func VMRead(h Handle, addr uintptr, dst []byte) (int, error) {
	return 0, syscall.ENOSYS
}

// VMWrite is only implemented on Windows.
func VMWrite(h Handle, addr uintptr, src []byte) (int, error) {
	return 0, syscall.ENOSYS
}
