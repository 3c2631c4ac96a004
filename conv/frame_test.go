package conv

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/icza/gog"
	"github.com/jancona/convfec/bits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC(t *testing.T) {
	assert.Equal(t, uint16(0x29b1), CRC([]byte("123456789")))
	assert.Equal(t, uint16(0xffff), CRC(nil))
}

func TestFrameCodec_RoundTrip(t *testing.T) {
	payload := []byte("Hello from me!\x00")
	for _, name := range ProfileNames() {
		t.Run(name, func(t *testing.T) {
			f, err := NewFrameCodec(Profiles[name], len(payload))
			require.NoError(t, err)
			assert.Equal(t, len(payload), f.PayloadLen())

			coded, err := f.Encode(payload)
			require.NoError(t, err)
			require.Len(t, coded, f.EncodedLen())

			got, metric, err := f.Decode(coded)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
			assert.Zero(t, metric)
		})
	}
}

func TestFrameCodec_FrameLength(t *testing.T) {
	tests := []struct {
		name       string
		payloadLen int
		want       int
	}{
		{"1/2", 25, 28},
		{"2/3", 25, 28},
		{"3/4", 25, 30},
		{"5/6", 25, 30},
		{"5/6 short", 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Profiles[tt.name[:3]]
			f := gog.Must(NewFrameCodec(p, tt.payloadLen))
			assert.Equal(t, tt.want, f.frameLen)
			assert.Equal(t, EncodedLen(p.Pattern, 8*tt.want), f.EncodedLen())
		})
	}
}

func TestFrameCodec_CorrectsErrors(t *testing.T) {
	payload := []byte{0x00, 0x05, 0x48, 0x65, 0x6c, 0x6c, 0x6f, 0x20, 0x66, 0x72}
	f := gog.Must(NewFrameCodec(Profiles["1/2"], len(payload)))
	coded := gog.Must(f.Encode(payload))
	coded.FlipBit(10)
	coded.FlipBit(60)
	coded.FlipBit(140)

	got, metric, err := f.Decode(coded)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, uint32(3), metric)
}

func TestFrameCodec_BadCRC(t *testing.T) {
	payload := []byte("abcd")
	f := gog.Must(NewFrameCodec(Profiles["2/3"], len(payload)))

	// encode a frame carrying a wrong check sequence
	frame := make([]byte, f.frameLen)
	copy(frame, payload)
	binary.BigEndian.PutUint16(frame[len(payload):], CRC(payload)^0x0100)
	enc := gog.Must(Profiles["2/3"].NewEncoder())
	coded := gog.Must(enc.Encode(bits.FromBytes(frame)))

	_, _, err := f.Decode(coded)
	assert.True(t, errors.Is(err, ErrBadCRC), "Decode() error = %v", err)
}

func TestFrameCodec_InvalidInput(t *testing.T) {
	_, err := NewFrameCodec(Profiles["1/2"], 0)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	_, err = NewFrameCodec(Profile{Name: "bad", Pattern: PuncturePattern(bits.MustParse("111")), TracebackDepth: 30}, 4)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	f := gog.Must(NewFrameCodec(Profiles["1/2"], 4))
	_, err = f.Encode([]byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, _, err = f.Decode(bits.New(10))
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
