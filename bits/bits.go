// Package bits holds unpacked bit sequences, one element per bit.
package bits

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

var ErrLengthMismatch = errors.New("bit vector lengths differ")

type Bit bool

func (b *Bit) Byte() byte {
	if *b {
		return 1
	}
	return 0
}
func (b *Bit) Set(by byte) {
	*b = by != 0
}

// Vector is an ordered sequence of bits.
type Vector []Bit

// New returns a vector of n zero bits.
func New(n int) Vector {
	return make(Vector, n)
}

// Parse builds a vector from a literal bit pattern such as "1101".
func Parse(s string) (Vector, error) {
	v := make(Vector, 0, len(s))
	for i, c := range s {
		switch c {
		case '0':
			v = append(v, false)
		case '1':
			v = append(v, true)
		default:
			return nil, fmt.Errorf("invalid character %q at position %d in bit string", c, i)
		}
	}
	return v, nil
}

// MustParse is like Parse but panics on malformed input. Intended for constants.
func MustParse(s string) Vector {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FromInt returns the low n bits of src. With lsbFirst the least significant bit comes first.
func FromInt[T constraints.Unsigned](src T, n int, lsbFirst bool) Vector {
	var v Vector
	v.AppendInt(uint64(src), n, lsbFirst)
	return v
}

// ToInt reads n bits starting at pos as an integer. With msbFirst the first bit is the most significant.
func ToInt[T constraints.Unsigned](v Vector, pos, n int, msbFirst bool) T {
	var r T
	for i := 0; i < n; i++ {
		b := T(v[pos+i].Byte())
		if msbFirst {
			r = r<<1 | b
		} else {
			r |= b << i
		}
	}
	return r
}

// FromBytes unpacks bytes MSB first.
func FromBytes(in []byte) Vector {
	v := make(Vector, 0, len(in)*8)
	for _, byt := range in {
		for j := 0; j < 8; j++ {
			v = append(v, (byt>>(7-j))&1 != 0)
		}
	}
	return v
}

// Bytes packs the vector MSB first. A partial final byte is zero padded.
func (v Vector) Bytes() []byte {
	out := make([]byte, (len(v)+7)/8)
	for i, b := range v {
		if b {
			out[i/8] |= 1 << (7 - (i % 8))
		}
	}
	return out
}

func (v Vector) Len() int {
	return len(v)
}

func (v Vector) At(pos int) byte {
	return v[pos].Byte()
}

func (v Vector) Set(pos int, b byte) {
	v[pos].Set(b)
}

// Append adds a single bit.
func (v *Vector) Append(b byte) {
	*v = append(*v, b != 0)
}

// AppendInt appends the low n bits of src.
func (v *Vector) AppendInt(src uint64, n int, lsbFirst bool) {
	for i := 0; i < n; i++ {
		if lsbFirst {
			*v = append(*v, (src>>i)&1 != 0)
		} else {
			*v = append(*v, (src>>(n-i-1))&1 != 0)
		}
	}
}

// Concat returns a new vector holding v followed by each of others.
func (v Vector) Concat(others ...Vector) Vector {
	n := len(v)
	for _, o := range others {
		n += len(o)
	}
	r := make(Vector, 0, n)
	r = append(r, v...)
	for _, o := range others {
		r = append(r, o...)
	}
	return r
}

// Extract copies n bits starting at pos.
func (v Vector) Extract(pos, n int) (Vector, error) {
	if pos < 0 || n < 0 || pos+n > len(v) {
		return nil, fmt.Errorf("extract [%d:%d] out of range for length %d", pos, pos+n, len(v))
	}
	r := make(Vector, n)
	copy(r, v[pos:pos+n])
	return r, nil
}

// ExtractAndRemove copies n bits starting at pos and deletes them from v.
func (v *Vector) ExtractAndRemove(pos, n int) (Vector, error) {
	r, err := v.Extract(pos, n)
	if err != nil {
		return nil, err
	}
	*v = append((*v)[:pos], (*v)[pos+n:]...)
	return r, nil
}

func (v Vector) Equal(o Vector) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}

// Ones returns the number of set bits.
func (v Vector) Ones() int {
	n := 0
	for _, b := range v {
		if b {
			n++
		}
	}
	return n
}

func (v Vector) Zeros() int {
	return len(v) - v.Ones()
}

func (v Vector) SetAll(b byte) {
	for i := range v {
		v[i].Set(b)
	}
}

func (v Vector) FlipBit(pos int) {
	v[pos] = !v[pos]
}

// Reverse reverses v in place and returns it.
func (v Vector) Reverse() Vector {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
	return v
}

func (v Vector) String() string {
	var sb strings.Builder
	sb.Grow(len(v))
	for _, b := range v {
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// HammingDistance counts the positions where a and b differ.
func HammingDistance(a, b Vector) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(a), len(b))
	}
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d, nil
}
