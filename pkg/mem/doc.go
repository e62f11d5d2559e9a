// Package mem reads, writes and allocates memory inside a running process
// through the host OS virtual memory primitives.
//
// The central type is Allocation, a (process handle, base address) pair.
// An Allocation is a capability rather than an owner: dropping it does not
// release anything, and release is always an explicit call to Free or
// FreeRemote. The size of the underlying region is not tracked; out of
// bounds accesses are reported by the OS.
//
// Every fallible operation returns an error whose dynamic type is
// syscall.Errno, the numeric code the OS reported for the failing call.
// Errors are never wrapped. Multi-byte values are encoded little-endian
// regardless of the host byte order.
//
// Handles are never opened, duplicated or closed by this package.
package mem
