// Package target opens the processes whose memory the rest of memwar
// operates on. Nothing in package mem depends on it.
package target

import (
	"errors"
	"fmt"

	"github.com/undoio/memwar/pkg/mem"
)

// ErrNotFound is returned when a process or module lookup has no match.
var ErrNotFound = errors.New("not found")

// Process is an open handle to a running process.
type Process struct {
	Pid    int
	Handle mem.Handle

	self bool
}

func (p *Process) String() string {
	if p.self {
		return fmt.Sprintf("self (pid %d)", p.Pid)
	}
	return fmt.Sprintf("pid %d (handle %v)", p.Pid, p.Handle)
}

// Allocation returns an allocation rooted at base in p.
func (p *Process) Allocation(base uintptr) mem.Allocation {
	return mem.Existing(p.Handle, base)
}

// Close releases the handle. Closing the current process is a no-op.
func (p *Process) Close() error {
	if p.self || p.Handle == mem.NullHandle {
		return nil
	}
	err := closeHandle(p.Handle)
	p.Handle = mem.NullHandle
	return err
}

// ModuleBase returns the load address of module in p.
func (p *Process) ModuleBase(module string) (uintptr, error) {
	return ModuleBase(p.Pid, module)
}
