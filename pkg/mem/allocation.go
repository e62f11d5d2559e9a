package mem

import (
	"fmt"

	"github.com/undoio/memwar/pkg/logflags"
)

// Allocation is a region of virtual memory in a process, identified by
// the process handle and the base address of the region.
//
// The zero value is not usable. Copies of an Allocation refer to the same
// region; releasing one of them releases the region for all.
type Allocation struct {
	process Handle
	base    uintptr
}

type allocOptions struct {
	prot Protection
}

// AllocOption configures the Alloc family of constructors.
type AllocOption func(*allocOptions)

// WithProtection overrides DefaultProtection for a new allocation.
func WithProtection(prot Protection) AllocOption {
	return func(o *allocOptions) {
		o.prot = prot
	}
}

func newAllocOptions(opts []AllocOption) allocOptions {
	o := allocOptions{prot: DefaultProtection}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Alloc allocates size bytes in the current process. If base is zero the
// OS chooses the address. The result must be released with Free.
func Alloc(base, size uintptr, opts ...AllocOption) (Allocation, error) {
	h, err := currentProcess()
	if err != nil {
		return Allocation{}, err
	}
	o := newAllocOptions(opts)
	p, err := VMAlloc(base, size, o.prot)
	if err != nil {
		return Allocation{}, err
	}
	if logflags.Mem() {
		logflags.MemLogger().Debugf("alloc %#x bytes at %#x (requested %#x, protection %#x)", size, p, base, o.prot)
	}
	return Existing(h, p), nil
}

// AllocRemote allocates size bytes in process h at the suggested base.
// The result must be released with FreeRemote.
func AllocRemote(h Handle, base, size uintptr, opts ...AllocOption) (Allocation, error) {
	o := newAllocOptions(opts)
	p, err := VMAllocEx(h, base, size, o.prot)
	if err != nil {
		return Allocation{}, err
	}
	if logflags.Mem() {
		logflags.MemLogger().WithField("process", h).Debugf("remote alloc %#x bytes at %#x (requested %#x, protection %#x)", size, p, base, o.prot)
	}
	return Existing(h, p), nil
}

// AllocRemoteAnywhere allocates size bytes in process h at an address
// chosen by the OS.
func AllocRemoteAnywhere(h Handle, size uintptr, opts ...AllocOption) (Allocation, error) {
	return AllocRemote(h, 0, size, opts...)
}

// Existing wraps a region the caller already knows about. No OS call is
// made and base is not validated.
func Existing(h Handle, base uintptr) Allocation {
	return Allocation{process: h, base: base}
}

// Free releases an allocation made in the current process.
// The Allocation must not be used afterwards.
func (a Allocation) Free() error {
	if err := VMFree(a.base); err != nil {
		return err
	}
	if logflags.Mem() {
		logflags.MemLogger().Debugf("free %#x", a.base)
	}
	return nil
}

// FreeRemote releases an allocation made in another process.
// The Allocation must not be used afterwards.
func (a Allocation) FreeRemote() error {
	if err := VMFreeEx(a.process, a.base); err != nil {
		return err
	}
	if logflags.Mem() {
		logflags.MemLogger().WithField("process", a.process).Debugf("remote free %#x", a.base)
	}
	return nil
}

// Base returns the base address of the region.
func (a Allocation) Base() uintptr {
	return a.base
}

// Process returns the handle of the process owning the region.
func (a Allocation) Process() Handle {
	return a.process
}

// Send returns a copy of a that is meant to be handed to another goroutine
// or OS thread.
func (a Allocation) Send() SendAlloc {
	return NewSendAlloc(a.process, a.base)
}

func (a Allocation) String() string {
	return fmt.Sprintf("%02X", a.base)
}
