package mem

// SendAlloc carries an allocation's handle and base address to another
// thread. Converting it back with Allocation is a plain field copy; the
// conversion is the point at which the caller asserts the handle and the
// address are still meaningful on the receiving side.
type SendAlloc struct {
	process Handle
	base    uintptr
}

func NewSendAlloc(h Handle, base uintptr) SendAlloc {
	return SendAlloc{process: h, base: base}
}

func (s SendAlloc) Base() uintptr {
	return s.base
}

func (s SendAlloc) Process() Handle {
	return s.process
}

// Allocation converts s into a live Allocation.
func (s SendAlloc) Allocation() Allocation {
	return Allocation{process: s.process, base: s.base}
}
