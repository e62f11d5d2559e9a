package memory

import (
	"bytes"
	"testing"

	"github.com/undoio/memwar/pkg/mem"
)

func TestBufferSwap(t *testing.T) {
	b := &Buffer{Addr: 0x1000, Data: []byte{1, 2, 3, 4}}
	old, err := b.Swap(0x1001, []byte{9, 9})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(old, []byte{2, 3}) {
		t.Fatalf("Swap returned % x", old)
	}
	if !bytes.Equal(b.Data, []byte{1, 9, 9, 4}) {
		t.Fatalf("buffer is % x", b.Data)
	}
}

func TestBufferOutOfRange(t *testing.T) {
	b := &Buffer{Addr: 0x1000, Data: make([]byte, 4)}
	for _, addr := range []uint64{0xfff, 0x1001, 0x1004} {
		_, err := b.Read(addr, 4)
		if code := mem.Code(err); code != 299 {
			t.Fatalf("Read(%#x): expected code 299, got %v", addr, err)
		}
	}
	if _, err := b.Write(0x1003, []byte{1, 2}); err == nil {
		t.Fatalf("write across the end should fail")
	}
	if d, err := b.Read(0x5000, 0); d != nil || err != nil {
		t.Fatalf("zero sized read: %v %v", d, err)
	}
}

// shortWriter stores at most limit bytes per write.
type shortWriter struct {
	Buffer
	limit int
}

func (w *shortWriter) ReadFull(addr uintptr, buf []byte) error {
	d, err := w.Buffer.Read(uint64(addr), len(buf))
	if err != nil {
		return err
	}
	copy(buf, d)
	return nil
}

func (w *shortWriter) Write(addr uintptr, data []byte) (int, error) {
	if len(data) > w.limit {
		data = data[:w.limit]
	}
	return w.Buffer.Write(uint64(addr), data)
}

func TestProcessShortWrite(t *testing.T) {
	w := &shortWriter{Buffer: Buffer{Addr: 0x1000, Data: []byte{1, 2, 3, 4}}, limit: 1}
	p := &Process{mem: w}

	n, err := p.Write(0x1000, []byte{9, 9})
	if n != 1 || mem.Code(err) != 299 {
		t.Fatalf("short Write returned %d, %v", n, err)
	}

	old, err := p.Swap(0x1002, []byte{7, 7})
	if mem.Code(err) != 299 {
		t.Fatalf("short Swap should fail with code 299, got %v", err)
	}
	if old != nil {
		t.Fatalf("failed Swap returned % x", old)
	}

	w.limit = 4
	old, err = p.Swap(0x1002, []byte{7, 7})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(old, []byte{7, 4}) || !bytes.Equal(w.Data, []byte{9, 2, 7, 7}) {
		t.Fatalf("Swap returned % x, buffer % x", old, w.Data)
	}
}
