package memory

import "syscall"

// errPartialCopy is ERROR_PARTIAL_COPY, the code Windows reports when a
// transfer leaves the accessible part of an address space or stops short.
var errPartialCopy error = syscall.Errno(299)
