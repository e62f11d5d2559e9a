package mem_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"os"
	"runtime"
	"testing"

	"golang.org/x/sys/windows"

	"github.com/undoio/memwar/pkg/mem"
)

func withAlloc(t *testing.T, size uintptr, fn func(a mem.Allocation)) {
	t.Helper()
	a, err := mem.Alloc(0, size)
	assertNoError(err, t, "Alloc")
	defer func() {
		assertNoError(a.Free(), t, "Free")
	}()
	fn(a)
}

func assertErrno(err error, t testing.TB, s string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected an error", s)
	}
	if _, ok := mem.Errno(err); !ok {
		t.Fatalf("%s: expected an OS error code, got %T %v", s, err, err)
	}
}

func TestRoundTripIntegers(t *testing.T) {
	withAlloc(t, 16, func(a mem.Allocation) {
		base := a.Base()
		for _, v := range []uint8{0, 1, 0x7f, 0xff} {
			_, err := a.WriteU8(base, v)
			assertNoError(err, t, "WriteU8")
			got, err := a.ReadU8(base)
			assertNoError(err, t, "ReadU8")
			if got != v {
				t.Fatalf("u8: wrote %#x read %#x", v, got)
			}
		}
		for _, v := range []uint16{0, 1, 0xbeef, 0xffff} {
			_, err := a.WriteU16(base, v)
			assertNoError(err, t, "WriteU16")
			got, err := a.ReadU16(base)
			assertNoError(err, t, "ReadU16")
			if got != v {
				t.Fatalf("u16: wrote %#x read %#x", v, got)
			}
		}
		for _, v := range []uint32{0, 1, 0xdeadbeef, 0xffffffff} {
			_, err := a.WriteU32(base, v)
			assertNoError(err, t, "WriteU32")
			got, err := a.ReadU32(base)
			assertNoError(err, t, "ReadU32")
			if got != v {
				t.Fatalf("u32: wrote %#x read %#x", v, got)
			}
		}
		for _, v := range []uint64{0, 1, 0x0123456789abcdef, math.MaxUint64} {
			_, err := a.WriteU64(base, v)
			assertNoError(err, t, "WriteU64")
			got, err := a.ReadU64(base)
			assertNoError(err, t, "ReadU64")
			if got != v {
				t.Fatalf("u64: wrote %#x read %#x", v, got)
			}
		}
		for _, v := range []mem.Uint128{{}, {Lo: 1}, {Lo: 0x0123456789abcdef, Hi: 0xfedcba9876543210}, {Lo: math.MaxUint64, Hi: math.MaxUint64}} {
			var buf [16]byte
			binary.LittleEndian.PutUint64(buf[:8], v.Lo)
			binary.LittleEndian.PutUint64(buf[8:], v.Hi)
			_, err := a.Write(base, buf[:])
			assertNoError(err, t, "Write u128")
			got, err := a.ReadU128(base)
			assertNoError(err, t, "ReadU128")
			if got != v {
				t.Fatalf("u128: wrote %v read %v", v, got)
			}
		}
		for _, v := range []int16{math.MinInt16, -1, 0, math.MaxInt16} {
			_, err := a.WriteU16(base, uint16(v))
			assertNoError(err, t, "WriteU16")
			got, err := a.ReadI16(base)
			assertNoError(err, t, "ReadI16")
			if got != v {
				t.Fatalf("i16: wrote %d read %d", v, got)
			}
		}
		for _, v := range []int32{math.MinInt32, -1, 0, math.MaxInt32} {
			_, err := a.WriteI32(base, v)
			assertNoError(err, t, "WriteI32")
			got, err := a.ReadI32(base)
			assertNoError(err, t, "ReadI32")
			if got != v {
				t.Fatalf("i32: wrote %d read %d", v, got)
			}
		}
		for _, v := range []int64{math.MinInt64, -1, 0, 1 << 40, math.MaxInt64} {
			_, err := a.WriteU64(base, uint64(v))
			assertNoError(err, t, "WriteU64")
			got, err := a.ReadI64(base)
			assertNoError(err, t, "ReadI64")
			if got != v {
				t.Fatalf("i64: wrote %d read %d", v, got)
			}
		}
	})
}

func TestRoundTripFloats(t *testing.T) {
	withAlloc(t, 16, func(a mem.Allocation) {
		base := a.Base()
		for _, bits := range []uint32{0, 0x80000000, 0x3fc00000, 0x7f800000, 0xff800000, 0x7fc00001, 0xffc12345} {
			_, err := a.WriteF32(base, math.Float32frombits(bits))
			assertNoError(err, t, "WriteF32")
			got, err := a.ReadF32(base)
			assertNoError(err, t, "ReadF32")
			if math.Float32bits(got) != bits {
				t.Fatalf("f32: wrote %#08x read %#08x", bits, math.Float32bits(got))
			}
		}
		for _, bits := range []uint64{0, 0x8000000000000000, 0x3ff8000000000000, 0x7ff0000000000000, 0x7ff8000000000001, 0xfff8000000abcdef} {
			_, err := a.WriteF64(base, math.Float64frombits(bits))
			assertNoError(err, t, "WriteF64")
			got, err := a.ReadF64(base)
			assertNoError(err, t, "ReadF64")
			if math.Float64bits(got) != bits {
				t.Fatalf("f64: wrote %#016x read %#016x", bits, math.Float64bits(got))
			}
		}
	})
}

func TestEndianness(t *testing.T) {
	withAlloc(t, 4, func(a mem.Allocation) {
		_, err := a.WriteU32(a.Base(), 0x01020304)
		assertNoError(err, t, "WriteU32")
		for i, want := range []uint8{0x04, 0x03, 0x02, 0x01} {
			got, err := a.ReadU8(a.Base() + uintptr(i))
			assertNoError(err, t, "ReadU8")
			if got != want {
				t.Fatalf("byte %d: %#x, expected %#x", i, got, want)
			}
		}
	})
}

func TestOffsetMath(t *testing.T) {
	const size = 64
	withAlloc(t, size, func(a mem.Allocation) {
		for o := uintptr(0); o <= size-4; o++ {
			v := uint32(o)*0x01010101 ^ 0xa5a5a5a5
			_, err := a.WriteU32Offset(o, v)
			assertNoError(err, t, "WriteU32Offset")
			got, err := a.ReadU32Offset(o)
			assertNoError(err, t, "ReadU32Offset")
			if got != v {
				t.Fatalf("offset %d: read %#x, expected %#x", o, got, v)
			}
			_, err = a.WriteU32(a.Base()+o, v+1)
			assertNoError(err, t, "WriteU32")
			got, err = a.ReadU32Offset(o)
			assertNoError(err, t, "ReadU32Offset")
			if got != v+1 {
				t.Fatalf("offset %d: read %#x, expected %#x", o, got, v+1)
			}
		}

		_, err := a.WriteF32Offset(8, 2.5)
		assertNoError(err, t, "WriteF32Offset")
		f, err := a.ReadF32Offset(8)
		assertNoError(err, t, "ReadF32Offset")
		if f != 2.5 {
			t.Fatalf("ReadF32Offset = %g", f)
		}

		_, err = a.WriteI32Offset(12, -7)
		assertNoError(err, t, "WriteI32Offset")
		i, err := a.ReadI32(a.Base() + 12)
		assertNoError(err, t, "ReadI32")
		if i != -7 {
			t.Fatalf("ReadI32 = %d", i)
		}

		_, err = a.WriteU16Offset(16, 0xcafe)
		assertNoError(err, t, "WriteU16Offset")
		u, err := a.ReadU16(a.Base() + 16)
		assertNoError(err, t, "ReadU16")
		if u != 0xcafe {
			t.Fatalf("ReadU16 = %#x", u)
		}
	})
}

func TestBoolOffset(t *testing.T) {
	withAlloc(t, 4, func(a mem.Allocation) {
		_, err := a.WriteU8(a.Base()+1, 0x80)
		assertNoError(err, t, "WriteU8")
		for off, want := range []bool{false, true} {
			got, err := a.ReadBoolOffset(uintptr(off))
			assertNoError(err, t, "ReadBoolOffset")
			if got != want {
				t.Fatalf("bool at %d = %v", off, got)
			}
		}
		_, err = a.WriteBoolOffset(2, true)
		assertNoError(err, t, "WriteBoolOffset")
		b, err := a.ReadU8(a.Base() + 2)
		assertNoError(err, t, "ReadU8")
		if b != 1 {
			t.Fatalf("true was written as %#x", b)
		}
	})
}

func TestWriteAllBuffered(t *testing.T) {
	const L = 1000
	payload := make([]byte, L)
	rand.New(rand.NewSource(1)).Read(payload)

	withAlloc(t, 2*L, func(ref mem.Allocation) {
		_, err := ref.WriteOffset(0, payload)
		assertNoError(err, t, "WriteOffset")
		want := make([]byte, 2*L)
		_, err = ref.ReadAtBase(want)
		assertNoError(err, t, "ReadAtBase")

		for _, chunk := range []int{1, L / 2, L, L + 1, 2 * L} {
			withAlloc(t, 2*L, func(a mem.Allocation) {
				assertNoError(a.WriteAllBuffered(payload, chunk), t, "WriteAllBuffered")
				got := make([]byte, 2*L)
				_, err := a.ReadAtBase(got)
				assertNoError(err, t, "ReadAtBase")
				if !bytes.Equal(got, want) {
					t.Fatalf("chunk %d: memory differs from a single write", chunk)
				}
			})
		}
	})

	withAlloc(t, 2*L, func(a mem.Allocation) {
		assertNoError(a.WriteAllBufferedOffset(7, payload, 64), t, "WriteAllBufferedOffset")
		got := make([]byte, L)
		_, err := a.ReadOffset(7, got)
		assertNoError(err, t, "ReadOffset")
		if !bytes.Equal(got, payload) {
			t.Fatalf("offset buffered write mismatch")
		}
		err = a.WriteAllBuffered(payload, 0)
		if errno, ok := mem.Errno(err); !ok || errno != windows.ERROR_INVALID_PARAMETER {
			t.Fatalf("chunk size 0: expected ERROR_INVALID_PARAMETER, got %v", err)
		}
	})
}

func TestDerefChain(t *testing.T) {
	withAlloc(t, 4096, func(a mem.Allocation) {
		base := a.Base()
		node := base + 0x40
		leaf := base + 0x80
		_, err := a.WriteUintptr(base, node)
		assertNoError(err, t, "WriteUintptr")
		_, err = a.WriteUintptr(node+2*uintptr(mem.WordSize), leaf)
		assertNoError(err, t, "WriteUintptr")
		_, err = a.WriteUintptr(leaf, 0xDEADBEEF)
		assertNoError(err, t, "WriteUintptr")

		offsets := []uintptr{2 * uintptr(mem.WordSize), 0}
		addr, err := a.DerefChain(base, offsets...)
		assertNoError(err, t, "DerefChain")
		if addr != leaf {
			t.Fatalf("DerefChain = %#x, expected %#x", addr, leaf)
		}
		v, err := a.ReadUintptr(addr)
		assertNoError(err, t, "ReadUintptr")
		if v != 0xDEADBEEF {
			t.Fatalf("leaf value %#x", v)
		}

		addr, err = a.DerefChainWithBase(0, offsets...)
		assertNoError(err, t, "DerefChainWithBase")
		if addr != leaf {
			t.Fatalf("DerefChainWithBase = %#x, expected %#x", addr, leaf)
		}

		addr, err = a.DerefChain(base)
		assertNoError(err, t, "DerefChain without offsets")
		if addr != base {
			t.Fatalf("DerefChain without offsets = %#x, expected %#x", addr, base)
		}

		_, err = a.DerefChain(0)
		assertErrno(err, t, "DerefChain(0)")
		// node + off wraps around to the last byte of the address space.
		_, err = a.DerefChain(base, ^uintptr(0)-node)
		assertErrno(err, t, "DerefChain into unmapped memory")
	})
}

func TestFailureSurface(t *testing.T) {
	withAlloc(t, 4, func(a mem.Allocation) {
		_, err := a.ReadU32(0)
		assertErrno(err, t, "ReadU32(0)")

		err = mem.Existing(a.Process(), a.Base()+1).Free()
		assertErrno(err, t, "Free of an address that is not an allocation base")

		// The allocation is one page; the next one is not committed.
		_, err = a.ReadU64(a.Base() + uintptr(os.Getpagesize()) - 4)
		assertErrno(err, t, "ReadU64 past the end of the allocation")
	})

	_, err := mem.AllocRemote(mem.NullHandle, 0, 16)
	if errno, ok := mem.Errno(err); !ok || errno != windows.ERROR_INVALID_HANDLE {
		t.Fatalf("AllocRemote(NullHandle): expected ERROR_INVALID_HANDLE, got %v", err)
	}
	err = mem.Existing(mem.NullHandle, 0x1000).FreeRemote()
	assertErrno(err, t, "FreeRemote(NullHandle)")
}

func TestAllocRemoteCurrentProcess(t *testing.T) {
	h := mem.Handle(windows.CurrentProcess())
	a, err := mem.AllocRemoteAnywhere(h, 64)
	assertNoError(err, t, "AllocRemoteAnywhere")
	if a.Base() == 0 {
		t.Fatalf("null base")
	}
	_, err = a.WriteU32Offset(4, 42)
	assertNoError(err, t, "WriteU32Offset")
	v, err := a.ReadU32Offset(4)
	assertNoError(err, t, "ReadU32Offset")
	if v != 42 {
		t.Fatalf("read %d", v)
	}
	assertNoError(a.FreeRemote(), t, "FreeRemote")
}

func TestAllocWithProtection(t *testing.T) {
	a, err := mem.Alloc(0, 16, mem.WithProtection(mem.ProtNoAccess))
	assertNoError(err, t, "Alloc")
	defer a.Free()
	_, err = a.ReadU32(a.Base())
	assertErrno(err, t, "read of a PAGE_NOACCESS page")
}

func TestSendAllocAcrossThreads(t *testing.T) {
	withAlloc(t, 8, func(a mem.Allocation) {
		s := a.Send()
		written := make(chan error)
		read := make(chan uint32)
		readErr := make(chan error, 1)

		go func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			_, err := s.Allocation().WriteU32Offset(0, 1)
			written <- err
		}()
		go func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			if err := <-written; err != nil {
				readErr <- err
				close(read)
				return
			}
			v, err := s.Allocation().ReadU32Offset(0)
			readErr <- err
			read <- v
		}()

		assertNoError(<-readErr, t, "cross thread access")
		if v := <-read; v != 1 {
			t.Fatalf("read %d, expected 1", v)
		}
	})
}

func TestPatternRoundTrip(t *testing.T) {
	const size = 4096
	withAlloc(t, size, func(a mem.Allocation) {
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(i)
		}
		n, err := a.WriteAtBase(data)
		assertNoError(err, t, "WriteAtBase")
		if n != size {
			t.Fatalf("wrote %d bytes", n)
		}
		got := make([]byte, size)
		n, err = a.ReadAtBase(got)
		assertNoError(err, t, "ReadAtBase")
		if n != size || !bytes.Equal(got, data) {
			t.Fatalf("pattern mismatch (%d bytes read)", n)
		}
	})
}

func TestLargeBufferedWrite(t *testing.T) {
	const size = 1 << 20
	const readChunk = 64 << 10
	withAlloc(t, size, func(a mem.Allocation) {
		payload := make([]byte, size)
		rand.New(rand.NewSource(42)).Read(payload)
		assertNoError(a.WriteAllBuffered(payload, 4096), t, "WriteAllBuffered")
		got := make([]byte, readChunk)
		for off := 0; off < size; off += readChunk {
			assertNoError(a.ReadFull(a.Base()+uintptr(off), got), t, "ReadFull")
			if !bytes.Equal(got, payload[off:off+readChunk]) {
				t.Fatalf("mismatch in chunk at %#x", off)
			}
		}
	})
}

func TestReadVectorFromAllocation(t *testing.T) {
	withAlloc(t, 12, func(a mem.Allocation) {
		_, err := a.WriteAtBase(v3(1, 2, 3).Bytes())
		assertNoError(err, t, "WriteAtBase")
		v, err := mem.ReadVector3(a, a.Base())
		assertNoError(err, t, "ReadVector3")
		if v != v3(1, 2, 3) {
			t.Fatalf("ReadVector3 = %v", v)
		}
		w, err := mem.ReadVector2(a, a.Base()+4)
		assertNoError(err, t, "ReadVector2")
		if w != v2(2, 3) {
			t.Fatalf("ReadVector2 = %v", w)
		}
	})
}
