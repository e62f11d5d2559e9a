package terminal

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/undoio/memwar/pkg/mem"
)

// valueTypes lists the type names accepted by read, write and chain.
var valueTypes = []string{"u8", "u16", "u32", "u64", "u128", "i16", "i32", "i64", "f32", "f64", "bool", "ptr", "v2", "v3"}

func isValueType(typ string) bool {
	for _, v := range valueTypes {
		if v == typ {
			return true
		}
	}
	return false
}

func unknownType(typ string) error {
	return fmt.Errorf("unknown type %q, expected one of %s", typ, strings.Join(valueTypes, " "))
}

func readValue(a mem.Allocation, typ string, addr uintptr) (string, error) {
	v, err := readTyped(a, typ, addr)
	if err != nil {
		return "", err
	}
	if p, ok := v.(uintptr); ok {
		return fmt.Sprintf("%#x", p), nil
	}
	return fmt.Sprint(v), nil
}

// readTyped reads a value of type typ at addr.
func readTyped(a mem.Allocation, typ string, addr uintptr) (interface{}, error) {
	switch typ {
	case "u8":
		return a.ReadU8(addr)
	case "u16":
		return a.ReadU16(addr)
	case "u32":
		return a.ReadU32(addr)
	case "u64":
		return a.ReadU64(addr)
	case "u128":
		return a.ReadU128(addr)
	case "i16":
		return a.ReadI16(addr)
	case "i32":
		return a.ReadI32(addr)
	case "i64":
		return a.ReadI64(addr)
	case "f32":
		return a.ReadF32(addr)
	case "f64":
		return a.ReadF64(addr)
	case "bool":
		return mem.Existing(a.Process(), addr).ReadBoolOffset(0)
	case "ptr":
		return a.ReadUintptr(addr)
	case "v2":
		return mem.ReadVector2(a, addr)
	case "v3":
		return mem.ReadVector3(a, addr)
	default:
		return nil, unknownType(typ)
	}
}

func writeValue(a mem.Allocation, typ string, addr uintptr, args []string) error {
	want := 1
	switch typ {
	case "v2":
		want = 2
	case "v3":
		want = 3
	}
	if len(args) != want {
		return fmt.Errorf("type %s takes %d value(s), got %d", typ, want, len(args))
	}
	s := args[0]

	var err error
	switch typ {
	case "u8", "u16", "u32", "u64":
		bits, _ := strconv.Atoi(typ[1:])
		var n uint64
		n, err = strconv.ParseUint(s, 0, bits)
		if err != nil {
			return err
		}
		switch bits {
		case 8:
			_, err = a.WriteU8(addr, uint8(n))
		case 16:
			_, err = a.WriteU16(addr, uint16(n))
		case 32:
			_, err = a.WriteU32(addr, uint32(n))
		default:
			_, err = a.WriteU64(addr, n)
		}
	case "i16", "i32", "i64":
		bits, _ := strconv.Atoi(typ[1:])
		var n int64
		n, err = strconv.ParseInt(s, 0, bits)
		if err != nil {
			return err
		}
		switch bits {
		case 16:
			_, err = a.WriteU16(addr, uint16(n))
		case 32:
			_, err = a.WriteI32(addr, int32(n))
		default:
			_, err = a.WriteU64(addr, uint64(n))
		}
	case "u128":
		var b []byte
		b, err = parseU128(s)
		if err != nil {
			return err
		}
		_, err = a.Write(addr, b)
	case "f32":
		var f float64
		f, err = strconv.ParseFloat(s, 32)
		if err != nil {
			return err
		}
		_, err = a.WriteF32(addr, float32(f))
	case "f64":
		var f float64
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		_, err = a.WriteF64(addr, f)
	case "bool":
		var b bool
		b, err = strconv.ParseBool(s)
		if err != nil {
			return err
		}
		_, err = mem.Existing(a.Process(), addr).WriteBoolOffset(0, b)
	case "ptr":
		var n uint64
		n, err = strconv.ParseUint(s, 0, mem.WordSize*8)
		if err != nil {
			return err
		}
		_, err = a.WriteUintptr(addr, uintptr(n))
	case "v2", "v3":
		var f [3]float32
		for i := range args {
			var x float64
			x, err = strconv.ParseFloat(args[i], 32)
			if err != nil {
				return err
			}
			f[i] = float32(x)
		}
		var b []byte
		if typ == "v2" {
			b = mem.Vector2{X: f[0], Y: f[1]}.Bytes()
		} else {
			b = mem.Vector3{X: f[0], Y: f[1], Z: f[2]}.Bytes()
		}
		_, err = a.Write(addr, b)
	default:
		return unknownType(typ)
	}
	return err
}

// parseU128 returns the 16 byte little-endian encoding of s.
func parseU128(s string) ([]byte, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok || n.Sign() < 0 || n.BitLen() > 128 {
		return nil, fmt.Errorf("%q is not a valid u128", s)
	}
	lo := new(big.Int).And(n, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(n, 64)
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b[:8], lo.Uint64())
	binary.LittleEndian.PutUint64(b[8:], hi.Uint64())
	return b, nil
}

// parseOffset parses a chain offset. Negative offsets wrap around.
func parseOffset(s string) (uintptr, error) {
	if strings.HasPrefix(s, "-") {
		n, err := strconv.ParseUint(s[1:], 0, mem.WordSize*8)
		if err != nil {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
		return -uintptr(n), nil
	}
	n, err := strconv.ParseUint(s, 0, mem.WordSize*8)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	return uintptr(n), nil
}

// parseAddr parses a hexadecimal or decimal address, or module+offset
// resolved against the attached process.
func (t *Term) parseAddr(s string) (uintptr, error) {
	if n, err := strconv.ParseUint(s, 0, mem.WordSize*8); err == nil {
		return uintptr(n), nil
	}
	i := strings.LastIndex(s, "+")
	if i <= 0 || i == len(s)-1 {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	module, offstr := s[:i], s[i+1:]
	off, err := strconv.ParseUint(offstr, 0, mem.WordSize*8)
	if err != nil {
		return 0, fmt.Errorf("invalid offset in %q", s)
	}
	proc, err := t.process()
	if err != nil {
		return 0, fmt.Errorf("cannot resolve %s: %v", module, err)
	}
	base, err := proc.ModuleBase(module)
	if err != nil {
		return 0, err
	}
	return base + uintptr(off), nil
}
