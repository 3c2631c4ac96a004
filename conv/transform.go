package conv

import "github.com/jancona/convfec/bits"

// Generic transformation
type Transform[I any, O any] struct {
	sink      chan I
	source    chan O
	transform func(I) []O
}

func NewTransform[I any, O any](sink chan I, transform func(I) []O, sourceSize int) Transform[I, O] {
	ret := Transform[I, O]{
		sink:      sink,
		source:    make(chan O, sourceSize),
		transform: transform,
	}
	go ret.handle()
	return ret
}

func (t *Transform[I, O]) Source() chan O {
	return t.source
}

func (t *Transform[I, O]) handle() {
	for {
		chunk, ok := <-t.sink
		if !ok {
			break
		}
		for _, s := range t.transform(chunk) {
			t.source <- s
		}
	}
	close(t.source)
}

// CodecStage runs an Encoder or a continuous Decoder over a stream of chunks.
// Each chunk must satisfy the alignment rules of the wrapped codec; a chunk that
// doesn't is dropped and the first such error is kept.
type CodecStage struct {
	Transform[bits.Vector, bits.Vector]
	err error
}

func NewEncodeStage(sink chan bits.Vector, enc *Encoder, sourceSize int) *CodecStage {
	ret := &CodecStage{}
	ret.Transform = NewTransform(sink, ret.wrap(enc.Encode), sourceSize)
	return ret
}

func NewDecodeStage(sink chan bits.Vector, dec *Decoder, sourceSize int) *CodecStage {
	ret := &CodecStage{}
	ret.Transform = NewTransform(sink, ret.wrap(dec.Decode), sourceSize)
	return ret
}

func (t *CodecStage) wrap(f func(bits.Vector) (bits.Vector, error)) func(bits.Vector) []bits.Vector {
	return func(in bits.Vector) []bits.Vector {
		out, err := f(in)
		if err != nil {
			if t.err == nil {
				t.err = err
			}
			return nil
		}
		return []bits.Vector{out}
	}
}

// Err returns the first error seen. Only valid once Source has been closed.
func (t *CodecStage) Err() error {
	return t.err
}
