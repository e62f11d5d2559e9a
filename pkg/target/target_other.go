//go:build !windows
// +build !windows

package target

import (
	"fmt"
	"os"
	"runtime"

	"github.com/undoio/memwar/pkg/mem"
)

var errUnsupported = fmt.Errorf("process memory access is not supported on %s", runtime.GOOS)

// Self returns the current process. Memory operations on it fail on this
// platform.
func Self() *Process {
	return &Process{Pid: os.Getpid(), Handle: mem.NullHandle, self: true}
}

func Open(pid int) (*Process, error) {
	return nil, errUnsupported
}

func OpenByName(name string) (*Process, error) {
	return nil, errUnsupported
}

func closeHandle(h mem.Handle) error {
	return errUnsupported
}

func FindPid(name string) (int, error) {
	return 0, errUnsupported
}

func ModuleBase(pid int, module string) (uintptr, error) {
	return 0, errUnsupported
}
