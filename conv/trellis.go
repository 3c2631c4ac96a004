package conv

import "math/bits"

const (
	ConstraintK = 7                      // constraint length K=7
	States      = 1 << (ConstraintK - 1) // number of states of the convolutional encoder
	stateMask   = States - 1
)

// Generator polynomials 171/133 octal, as masks over the register state*2+input.
var Generators = [2]uint32{0x6D, 0x4F}

// Trellis is the state diagram of the 7,1,2 code.
//
// An even state is only reached through input 0 and an odd state only through input 1:
//
//	[curr] -> 0 -> [curr*2 mod 64]
//	[curr] -> 1 -> [curr*2+1 mod 64]
//
// so the low bit of any state is the input bit that produced it.
type Trellis struct {
	Outputs   [States][2][2]uint8
	NextState [States][2]uint8
}

// Trellis712 is built once and never modified.
var Trellis712 = NewTrellis()

func NewTrellis() Trellis {
	var t Trellis
	for s := 0; s < States; s++ {
		for in := 0; in < 2; in++ {
			reg := uint32(s*2 | in)
			for k, g := range Generators {
				t.Outputs[s][in][k] = uint8(bits.OnesCount32(reg&g) & 1)
			}
			t.NextState[s][in] = uint8(reg & stateMask)
		}
	}
	return t
}

func (t *Trellis) Output(state, input uint8) [2]uint8 {
	return t.Outputs[state][input]
}

func (t *Trellis) Next(state, input uint8) uint8 {
	return t.NextState[state][input]
}
