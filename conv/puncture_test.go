package conv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePuncturePattern(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantOnes int
		wantErr  error
	}{
		{"rate 1/2", "11", 2, nil},
		{"rate 2/3", "1110", 3, nil},
		{"rate 3/4", "111001", 4, nil},
		{"rate 5/6", "1110011001", 6, nil},
		{"empty", "", 0, ErrInvalidConfiguration},
		{"odd", "111", 0, ErrInvalidConfiguration},
		{"no ones", "0000", 0, ErrInvalidConfiguration},
		{"bad char", "11a0", 0, ErrInvalidConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePuncturePattern(tt.in)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "ParsePuncturePattern(%q) error = %v", tt.in, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOnes, got.Ones())
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestProfiles(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		depth   int
	}{
		{"1/2", "11", 30},
		{"2/3", "1110", 45},
		{"3/4", "111001", 60},
		{"5/6", "1110011001", 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LookupProfile(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.pattern, p.Pattern.String())
			assert.Equal(t, tt.depth, p.TracebackDepth)
			assert.NoError(t, p.Validate())

			d, err := p.NewDecoder()
			require.NoError(t, err)
			assert.Equal(t, tt.depth, d.TracebackDepth())
			assert.Equal(t, tt.pattern, d.PuncturePattern().String())
		})
	}

	_, err := LookupProfile("7/8")
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	assert.Equal(t, []string{"1/2", "2/3", "3/4", "5/6"}, ProfileNames())

	bad := Profile{Name: "bad", Pattern: Pattern12}
	assert.True(t, errors.Is(bad.Validate(), ErrInvalidConfiguration))
}

func TestEncodedLen(t *testing.T) {
	assert.Equal(t, 48, EncodedLen(Pattern12, 24))
	assert.Equal(t, 36, EncodedLen(Pattern23, 24))
	assert.Equal(t, 32, EncodedLen(Pattern34, 24))
	assert.Equal(t, 144, EncodedLen(Pattern56, 120))
}
