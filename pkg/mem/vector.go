package mem

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Float32Reader reads a little-endian float32 at an address.
// Allocation implements it.
type Float32Reader interface {
	ReadF32(addr uintptr) (float32, error)
}

// Vector2 is a packed pair of float32, 8 bytes in memory.
type Vector2 struct {
	X, Y float32
}

// Vector3 is a packed triple of float32, 12 bytes in memory.
type Vector3 struct {
	X, Y, Z float32
}

// ReadVector2 reads a Vector2 at addr.
func ReadVector2(r Float32Reader, addr uintptr) (Vector2, error) {
	x, err := r.ReadF32(addr)
	if err != nil {
		return Vector2{}, err
	}
	y, err := r.ReadF32(addr + 4)
	if err != nil {
		return Vector2{}, err
	}
	return Vector2{x, y}, nil
}

// ReadVector3 reads a Vector3 at addr.
func ReadVector3(r Float32Reader, addr uintptr) (Vector3, error) {
	x, err := r.ReadF32(addr)
	if err != nil {
		return Vector3{}, err
	}
	y, err := r.ReadF32(addr + 4)
	if err != nil {
		return Vector3{}, err
	}
	z, err := r.ReadF32(addr + 8)
	if err != nil {
		return Vector3{}, err
	}
	return Vector3{x, y, z}, nil
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// Len returns the Euclidean norm of v.
func (v Vector2) Len() float32 {
	return sqrt32(v.X*v.X + v.Y*v.Y)
}

// Normalized divides every component by Len. A zero vector produces
// non-finite components.
func (v Vector2) Normalized() Vector2 {
	l := v.Len()
	return Vector2{v.X / l, v.Y / l}
}

func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{v.X + o.X, v.Y + o.Y}
}

func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{v.X - o.X, v.Y - o.Y}
}

// Bytes returns the packed little-endian representation of v.
func (v Vector2) Bytes() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	return b
}

func (v Vector2) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}

// Len returns the Euclidean norm of v.
func (v Vector3) Len() float32 {
	return sqrt32(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized divides every component by Len. A zero vector produces
// non-finite components.
func (v Vector3) Normalized() Vector3 {
	l := v.Len()
	return Vector3{v.X / l, v.Y / l, v.Z / l}
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Bytes returns the packed little-endian representation of v.
func (v Vector3) Bytes() []byte {
	b := make([]byte, 12)
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Z))
	return b
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}
