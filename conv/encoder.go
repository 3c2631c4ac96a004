package conv

import (
	"fmt"

	"github.com/jancona/convfec/bits"
)

// Encoder is a stateful 7,1,2 convolutional encoder with output puncturing.
// An Encoder must not be used from more than one goroutine at a time.
type Encoder struct {
	trellis         *Trellis
	puncturePattern PuncturePattern
	currentState    uint8
	punctureIndex   int
}

func NewEncoder() *Encoder {
	return &Encoder{
		trellis:         &Trellis712,
		puncturePattern: append(PuncturePattern(nil), Pattern12...),
	}
}

// SetPuncturePattern replaces the puncture pattern and resets the encoder.
// An empty pattern selects the unpunctured rate 1/2 default.
func (e *Encoder) SetPuncturePattern(p PuncturePattern) error {
	pp, err := usePattern(p)
	if err != nil {
		return err
	}
	e.puncturePattern = pp
	e.punctureIndex = 0
	e.Reset()
	return nil
}

func (e *Encoder) PuncturePattern() PuncturePattern {
	return append(PuncturePattern(nil), e.puncturePattern...)
}

// State is the current trellis state.
func (e *Encoder) State() uint8 {
	return e.currentState
}

// Encode runs input through the trellis and returns the punctured code bits.
// 2*len(input) must be a multiple of the puncture pattern length.
func (e *Encoder) Encode(input bits.Vector) (bits.Vector, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("%w: empty input not allowed", ErrInvalidInput)
	}
	ppLen := len(e.puncturePattern)
	if (2*len(input))%ppLen != 0 {
		return nil, fmt.Errorf("%w: encoded length %d is not a multiple of puncture pattern length %d", ErrInvalidInput, 2*len(input), ppLen)
	}

	out := make(bits.Vector, 0, EncodedLen(e.puncturePattern, len(input)))
	for i := range input {
		in := input.At(i)
		// Insert the two output bits only where the puncture pattern is set
		for _, o := range e.trellis.Output(e.currentState, in) {
			if e.puncturePattern[e.punctureIndex] {
				out.Append(o)
			}
			e.punctureIndex++
			if e.punctureIndex >= ppLen {
				e.punctureIndex = 0
			}
		}
		e.currentState = e.trellis.Next(e.currentState, in)
	}
	return out, nil
}

// Reset returns the encoder to state zero. The puncture position is kept.
func (e *Encoder) Reset() {
	e.currentState = 0
}
