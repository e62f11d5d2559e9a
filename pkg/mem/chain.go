package mem

// DerefChain follows a multi-level pointer starting at start.
//
// A word is read at start. Then, for each offset in turn, the address
// (previous word + offset) is computed and a word is read there. The
// address of the last read is returned, not the word stored at it, so the
// result can be handed directly to a typed read or write.
//
// With no offsets start is returned after a single read at start. Note
// that the last address is always read even though its contents are
// discarded.
func (a Allocation) DerefChain(start uintptr, offsets ...uintptr) (uintptr, error) {
	t, err := a.ReadUintptr(start)
	if err != nil {
		return 0, err
	}
	addr := start
	for _, off := range offsets {
		addr = t + off
		t, err = a.ReadUintptr(addr)
		if err != nil {
			return 0, err
		}
	}
	return addr, nil
}

// DerefChainWithBase is DerefChain starting at b+Base(). It is meant for
// allocations wrapping a module base, with b and offsets relative to it.
func (a Allocation) DerefChainWithBase(b uintptr, offsets ...uintptr) (uintptr, error) {
	return a.DerefChain(b+a.base, offsets...)
}
