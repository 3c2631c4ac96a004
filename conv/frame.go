package conv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"

	"github.com/jancona/convfec/bits"
	"github.com/sigurn/crc16"
)

var ErrBadCRC = errors.New("frame CRC mismatch")

// CRC-16/CCITT-FALSE
var frameCRCParams = crc16.Params{
	Poly:  0x1021,
	Init:  0xffff,
	Check: 0x29b1,
	Name:  "CRC-16/CCITT-FALSE",
}

var frameCRCTable = crc16.MakeTable(frameCRCParams)

// CRC calculates the frame check sequence of in.
func CRC(in []byte) uint16 {
	return crc16.Checksum(in, frameCRCTable)
}

const (
	frameCRCLen  = 2
	frameTailLen = 1 // zero byte returning the encoder to state 0
)

// FrameCodec protects fixed size payloads. A frame is the payload, its CRC, zero
// padding up to the puncture period and a zero tail byte, encoded as one
// terminated block.
type FrameCodec struct {
	enc        *Encoder
	dec        *Decoder
	payloadLen int
	frameLen   int // plaintext bytes per frame
}

func NewFrameCodec(p Profile, payloadLen int) (*FrameCodec, error) {
	if payloadLen <= 0 {
		return nil, fmt.Errorf("%w: payload length %d must be positive", ErrInvalidConfiguration, payloadLen)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	enc, err := p.NewEncoder()
	if err != nil {
		return nil, err
	}
	dec, err := p.NewDecoder()
	if err != nil {
		return nil, err
	}
	frameLen := payloadLen + frameCRCLen + frameTailLen
	for (2*8*frameLen)%p.Pattern.Len() != 0 {
		frameLen++
	}
	return &FrameCodec{
		enc:        enc,
		dec:        dec,
		payloadLen: payloadLen,
		frameLen:   frameLen,
	}, nil
}

func (f *FrameCodec) PayloadLen() int {
	return f.payloadLen
}

// EncodedLen is the number of transmitted bits per frame.
func (f *FrameCodec) EncodedLen() int {
	return EncodedLen(f.enc.puncturePattern, 8*f.frameLen)
}

func (f *FrameCodec) Encode(payload []byte) (bits.Vector, error) {
	if len(payload) != f.payloadLen {
		return nil, fmt.Errorf("%w: payload length %d, want %d", ErrInvalidInput, len(payload), f.payloadLen)
	}
	frame := make([]byte, f.frameLen)
	copy(frame, payload)
	binary.BigEndian.PutUint16(frame[f.payloadLen:], CRC(payload))

	f.enc.Reset()
	return f.enc.Encode(bits.FromBytes(frame))
}

// Decode returns the payload of a received frame and the decoder's path metric,
// an estimate of the number of corrected bit errors.
func (f *FrameCodec) Decode(coded bits.Vector) ([]byte, uint32, error) {
	if len(coded) != f.EncodedLen() {
		return nil, 0, fmt.Errorf("%w: frame length %d, want %d", ErrInvalidInput, len(coded), f.EncodedLen())
	}
	plain, err := f.dec.DecodeTerminated(coded)
	if err != nil {
		return nil, 0, err
	}
	metric := f.dec.PathMetric()
	frame := plain.Bytes()
	payload := frame[:f.payloadLen]
	got := binary.BigEndian.Uint16(frame[f.payloadLen:])
	if want := CRC(payload); got != want {
		log.Printf("[DEBUG] Bad frame CRC %04x, want %04x, path metric: %d", got, want, metric)
		return nil, metric, fmt.Errorf("%w: got %04x, want %04x", ErrBadCRC, got, want)
	}
	return payload, metric, nil
}
