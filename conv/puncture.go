package conv

import (
	"fmt"
	"sort"

	"github.com/jancona/convfec/bits"
)

// PuncturePattern is a periodic mask over the two-bits-per-step encoder output.
// A set bit keeps the encoded bit, a clear bit drops it.
type PuncturePattern bits.Vector

// Commonly used puncture patterns and associated traceback lengths
var (
	Pattern12 = PuncturePattern(bits.MustParse("11"))
	Pattern23 = PuncturePattern(bits.MustParse("1110"))
	Pattern34 = PuncturePattern(bits.MustParse("111001"))
	Pattern56 = PuncturePattern(bits.MustParse("1110011001"))
)

const (
	Traceback12 = 30
	Traceback23 = 45
	Traceback34 = 60
	Traceback56 = 90
)

func ParsePuncturePattern(s string) (PuncturePattern, error) {
	v, err := bits.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: puncture pattern: %v", ErrInvalidConfiguration, err)
	}
	p := PuncturePattern(v)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Ones is the number of bits transmitted per pattern period.
func (p PuncturePattern) Ones() int {
	return bits.Vector(p).Ones()
}

func (p PuncturePattern) Len() int {
	return len(p)
}

func (p PuncturePattern) String() string {
	return bits.Vector(p).String()
}

// Validate checks that p is nonempty, of even length and transmits at least one bit.
func (p PuncturePattern) Validate() error {
	switch {
	case len(p) == 0:
		return fmt.Errorf("%w: empty puncture pattern", ErrInvalidConfiguration)
	case len(p)%2 != 0:
		return fmt.Errorf("%w: puncture pattern %s has odd length %d", ErrInvalidConfiguration, p, len(p))
	case p.Ones() == 0:
		return fmt.Errorf("%w: puncture pattern %s transmits no bits", ErrInvalidConfiguration, p)
	}
	return nil
}

// mask returns the pattern as 0/1 bytes for use in distance computations.
func (p PuncturePattern) mask() []uint8 {
	m := make([]uint8, len(p))
	for i := range p {
		m[i] = bits.Vector(p).At(i)
	}
	return m
}

// usePattern copies a caller supplied pattern, substituting the unpunctured default for an empty one.
func usePattern(p PuncturePattern) (PuncturePattern, error) {
	if len(p) == 0 {
		p = Pattern12
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return append(PuncturePattern(nil), p...), nil
}

// EncodedLen returns the number of transmitted bits for n input bits.
func EncodedLen(p PuncturePattern, n int) int {
	return 2 * p.Ones() * n / p.Len()
}

// Profile pairs a puncture pattern with the traceback depth that suits it.
type Profile struct {
	Name           string
	Pattern        PuncturePattern
	TracebackDepth int
}

var Profiles = map[string]Profile{
	"1/2": {"1/2", Pattern12, Traceback12},
	"2/3": {"2/3", Pattern23, Traceback23},
	"3/4": {"3/4", Pattern34, Traceback34},
	"5/6": {"5/6", Pattern56, Traceback56},
}

func LookupProfile(name string) (Profile, error) {
	p, ok := Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: unknown code rate %q, want one of %v", ErrInvalidConfiguration, name, ProfileNames())
	}
	return p, nil
}

func ProfileNames() []string {
	names := make([]string, 0, len(Profiles))
	for n := range Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks the pattern and the traceback depth.
func (p Profile) Validate() error {
	if p.TracebackDepth <= 0 {
		return fmt.Errorf("%w: traceback depth %d must be positive", ErrInvalidConfiguration, p.TracebackDepth)
	}
	return p.Pattern.Validate()
}

func (p Profile) NewEncoder() (*Encoder, error) {
	e := NewEncoder()
	if err := e.SetPuncturePattern(p.Pattern); err != nil {
		return nil, err
	}
	return e, nil
}

func (p Profile) NewDecoder() (*Decoder, error) {
	d := NewDecoder()
	if err := d.SetPuncturePattern(p.Pattern); err != nil {
		return nil, err
	}
	if err := d.SetTracebackDepth(p.TracebackDepth); err != nil {
		return nil, err
	}
	return d, nil
}
