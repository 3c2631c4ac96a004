package conv

import (
	"fmt"
	"log"
	"math"

	"github.com/jancona/convfec/bits"
)

// Output rate
const outputBits = 2

// Initial metric of every state but zero, forcing the zero starting state.
const unreachedMetric = math.MaxUint32 / 2

// Decoder is a hard decision Viterbi decoder for the 7,1,2 [171, 133] code.
// Puncture pattern and traceback depth can be configured.
//
// Continuous decoding (Decode) assumes the encoder started in state zero and returns
// TracebackDepth zero bits after a reset. Terminated decoding (DecodeTerminated)
// assumes the first and the last encoder state are zero.
//
// A Decoder must not be used from more than one goroutine at a time.
type Decoder struct {
	trellis         *Trellis
	puncturePattern PuncturePattern
	punctureMask    []uint8
	tracebackDepth  int

	// decisions[column][state] is the predecessor of state chosen in that column.
	// TracebackDepth+1 columns, used as a ring.
	decisions   [][States]uint8
	decisionPos int

	// Accumulated path metrics, swapped after every column.
	prevMetric [States]uint32
	currMetric [States]uint32

	punctureIndex int
	pathMetric    uint32
}

func NewDecoder() *Decoder {
	d := &Decoder{
		trellis:         &Trellis712,
		puncturePattern: append(PuncturePattern(nil), Pattern12...),
		tracebackDepth:  Traceback12,
	}
	d.punctureMask = d.puncturePattern.mask()
	d.Reset()
	return d
}

// SetTracebackDepth sets the number of columns traced back before a bit is
// committed and resets the decoder.
func (d *Decoder) SetTracebackDepth(depth int) error {
	if depth <= 0 {
		return fmt.Errorf("%w: traceback depth %d must be positive", ErrInvalidConfiguration, depth)
	}
	d.tracebackDepth = depth
	d.Reset()
	return nil
}

func (d *Decoder) TracebackDepth() int {
	return d.tracebackDepth
}

// SetPuncturePattern replaces the puncture pattern and resets the decoder.
// An empty pattern selects the unpunctured rate 1/2 default.
func (d *Decoder) SetPuncturePattern(p PuncturePattern) error {
	pp, err := usePattern(p)
	if err != nil {
		return err
	}
	d.puncturePattern = pp
	d.punctureMask = pp.mask()
	d.Reset()
	return nil
}

func (d *Decoder) PuncturePattern() PuncturePattern {
	return append(PuncturePattern(nil), d.puncturePattern...)
}

// PathMetric is the best accumulated path metric after the most recently decoded
// column, i.e. the number of received bits the surviving path disagrees with.
// DecodeTerminated keeps the value of its final column.
func (d *Decoder) PathMetric() uint32 {
	return d.pathMetric
}

// Reset clears the decision history and restarts the decoder in state zero.
func (d *Decoder) Reset() {
	// tracebackDepth+1 columns hold tracebackDepth previous states
	depth := d.tracebackDepth + 1
	if len(d.decisions) != depth {
		d.decisions = make([][States]uint8, depth)
	} else {
		clear(d.decisions)
	}
	d.decisionPos = 1

	for i := range d.prevMetric {
		d.prevMetric[i] = unreachedMetric
		d.currMetric[i] = 0
	}
	d.prevMetric[0] = 0

	d.punctureIndex = 0
	d.pathMetric = 0
}

// Decode treats input, an encoded and punctured bit stream, as the continuation of
// everything decoded since the last Reset and returns one bit per trellis column.
// The depunctured length of input must be a multiple of the puncture pattern length.
func (d *Decoder) Decode(input bits.Vector) (bits.Vector, error) {
	ones := d.puncturePattern.Ones()
	if len(input)%ones != 0 {
		return nil, fmt.Errorf("%w: input length %d is not a multiple of %d transmitted bits per puncture period", ErrInvalidInput, len(input), ones)
	}
	depunctured := d.depuncture(input)
	if len(depunctured)%outputBits != 0 {
		return nil, fmt.Errorf("%w: depunctured length %d is not a multiple of %d", ErrInvalidInput, len(depunctured), outputBits)
	}

	columns := len(depunctured) / outputBits
	decoded := make(bits.Vector, columns)
	for i := 0; i < columns; i++ {
		rx := [outputBits]uint8{depunctured[i*outputBits], depunctured[i*outputBits+1]}
		mask := [outputBits]uint8{d.punctureMask[d.punctureIndex], d.punctureMask[d.punctureIndex+1]}

		d.addCompareSelect(rx, mask)
		decoded[i] = d.traceback(d.bestState())&1 != 0
		d.advance()
	}

	if d.punctureIndex != 0 {
		return nil, fmt.Errorf("%w: puncture index %d after decoding, want 0", ErrInvariantViolation, d.punctureIndex)
	}
	return decoded, nil
}

// DecodeTerminated decodes input as an independent block that starts and ends in
// state zero. It resets the decoder before and after, flushing the traceback with
// zeros in between.
func (d *Decoder) DecodeTerminated(input bits.Vector) (bits.Vector, error) {
	ones := d.puncturePattern.Ones()
	if len(input)%ones != 0 {
		return nil, fmt.Errorf("%w: input length %d is not a multiple of %d transmitted bits per puncture period", ErrInvalidInput, len(input), ones)
	}
	returnSize := len(input) * d.puncturePattern.Len() / ones / outputBits

	d.Reset()
	decoded, err := d.Decode(input)
	if err != nil {
		d.Reset()
		return nil, err
	}

	// Enough zeros to satisfy the puncture pattern ratio and flush the full traceback
	zerosToPad := (d.tracebackDepth*outputBits + ones - 1) / ones * ones
	flushed, err := d.Decode(bits.New(zerosToPad))
	if err != nil {
		d.Reset()
		return nil, err
	}
	decoded = append(decoded, flushed...)

	metric := d.pathMetric
	log.Printf("[DEBUG] DecodeTerminated len(input): %d, columns: %d, flush bits: %d, path metric: %d", len(input), returnSize, zerosToPad, metric)
	d.Reset()
	d.pathMetric = metric

	return decoded.Extract(d.tracebackDepth, returnSize)
}

// depuncture reinserts a zero wherever the pattern dropped a bit. The mask keeps
// those positions out of the branch distances.
func (d *Decoder) depuncture(input bits.Vector) []uint8 {
	pp := d.puncturePattern
	periods := len(input) / pp.Ones()
	out := make([]uint8, 0, periods*pp.Len())
	src := 0
	for range periods {
		for j := range pp {
			if pp[j] {
				out = append(out, input.At(src))
				src++
			} else {
				out = append(out, 0)
			}
		}
	}
	return out
}

// branchDistance is the Hamming distance between received and expected,
// ignoring positions where mask is zero.
func branchDistance(received, expected, mask [outputBits]uint8) uint32 {
	return uint32((received[0]^expected[0])&mask[0]) + uint32((received[1]^expected[1])&mask[1])
}

// addCompareSelect extends every survivor path by one column and records the
// chosen predecessor of each state in the current decision column.
//
// State s (s < 32) and its partner s+32 both lead to 2s on input 0 and 2s+1 on
// input 1. Both generators tap the oldest and the newest register bit, so the
// partner's outputs are those of s with the input inverted. Two distances per
// pair therefore cover all 128 branches.
func (d *Decoder) addCompareSelect(rx, mask [outputBits]uint8) {
	col := &d.decisions[d.decisionPos]
	for s := 0; s < States/2; s++ {
		m0 := branchDistance(rx, d.trellis.Outputs[s][0], mask)
		m1 := branchDistance(rx, d.trellis.Outputs[s][1], mask)

		col[2*s], d.currMetric[2*s] = d.selectSurvivor(s, m0, m1)
		col[2*s+1], d.currMetric[2*s+1] = d.selectSurvivor(s, m1, m0)
	}
}

// selectSurvivor compares the path through low with the path through low+32.
// Ties go to low.
func (d *Decoder) selectSurvivor(low int, lowDist, highDist uint32) (uint8, uint32) {
	fromLow := d.prevMetric[low] + lowDist
	fromHigh := d.prevMetric[low+States/2] + highDist
	if fromLow <= fromHigh {
		return uint8(low), fromLow
	}
	return uint8(low + States/2), fromHigh
}

// bestState returns the state with the smallest current metric, lowest index on ties.
func (d *Decoder) bestState() uint8 {
	best := 0
	for s := 1; s < States; s++ {
		if d.currMetric[s] < d.currMetric[best] {
			best = s
		}
	}
	d.pathMetric = d.currMetric[best]
	return uint8(best)
}

// traceback follows the recorded predecessors from state in the current column
// back through every other column of the ring and returns the state reached.
func (d *Decoder) traceback(state uint8) uint8 {
	pos := d.decisionPos
	for i := 0; i < len(d.decisions)-1; i++ {
		state = d.decisions[pos][state]
		pos--
		if pos < 0 {
			pos = len(d.decisions) - 1
		}
	}
	return state
}

func (d *Decoder) advance() {
	d.decisionPos++
	if d.decisionPos >= len(d.decisions) {
		d.decisionPos = 0
	}

	d.prevMetric, d.currMetric = d.currMetric, d.prevMetric

	d.punctureIndex += outputBits
	if d.punctureIndex >= len(d.puncturePattern) {
		d.punctureIndex = 0
	}
}
