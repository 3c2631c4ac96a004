package conv

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/icza/gog"
	"github.com/jancona/convfec/bits"
)

func TestEncoder_Encode(t *testing.T) {
	type args struct {
		in              bits.Vector
		puncturePattern PuncturePattern
	}
	tests := []struct {
		name    string
		args    args
		want    bits.Vector
		wantErr error
	}{
		{"unpunctured",
			args{bits.MustParse("1101"), Pattern12},
			bits.MustParse("11101011"),
			nil,
		},
		{"unpunctured tail",
			args{bits.MustParse("10110000"), Pattern12},
			bits.MustParse("1101000110100010"),
			nil,
		},
		{"rate 2/3",
			args{bits.MustParse("1101"), Pattern23},
			bits.MustParse("111101"),
			nil,
		},
		{"rate 3/4",
			args{bits.MustParse("110100"), Pattern34},
			bits.MustParse("11101111"),
			nil,
		},
		{"rate 5/6",
			args{bits.MustParse("1101001011"), Pattern56},
			bits.MustParse("111010010010"),
			nil,
		},
		{"default pattern",
			args{bits.MustParse("1101"), nil},
			bits.MustParse("11101011"),
			nil,
		},
		{"empty",
			args{bits.Vector{}, Pattern12},
			nil,
			ErrInvalidInput,
		},
		{"misaligned",
			args{bits.MustParse("1101"), Pattern34},
			nil,
			ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEncoder()
			if err := e.SetPuncturePattern(tt.args.puncturePattern); err != nil {
				t.Fatalf("SetPuncturePattern() error = %v", err)
			}
			got, err := e.Encode(tt.args.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Encode() error = %v, wantErr %v", err, tt.wantErr)
				}
				if e.State() != 0 {
					t.Errorf("Encode() advanced state to %d on invalid input", e.State())
				}
				return
			}
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Encode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncoder_RateFormula(t *testing.T) {
	r := rand.New(rand.NewPCG(17, 71))
	for name, p := range Profiles {
		for _, n := range []int{120, 240, 960} {
			e := gog.Must(p.NewEncoder())
			got := gog.Must(e.Encode(randomBits(r, n)))
			want := 2 * p.Pattern.Ones() * n / p.Pattern.Len()
			if len(got) != want {
				t.Errorf("%s: len(Encode(%d bits)) = %d, want %d", name, n, len(got), want)
			}
		}
	}
}

func TestEncoder_Continuation(t *testing.T) {
	in := bits.MustParse("110100101110001011")
	whole := gog.Must(NewEncoder().Encode(in))

	e := NewEncoder()
	first := gog.Must(e.Encode(in[:6]))
	second := gog.Must(e.Encode(in[6:]))
	if got := first.Concat(second); !got.Equal(whole) {
		t.Errorf("chunked Encode() = %v, want %v", got, whole)
	}
}

func TestEncoder_Reset(t *testing.T) {
	e := NewEncoder()
	gog.Must(e.Encode(bits.MustParse("1101")))
	if e.State() != 13 {
		t.Fatalf("State() = %d, want 13", e.State())
	}
	e.Reset()
	if e.State() != 0 {
		t.Errorf("State() after Reset = %d, want 0", e.State())
	}
	if got := gog.Must(e.Encode(bits.MustParse("1101"))); !got.Equal(bits.MustParse("11101011")) {
		t.Errorf("Encode() after Reset = %v", got)
	}
}

func TestEncoder_SetPuncturePattern(t *testing.T) {
	e := NewEncoder()
	gog.Must(e.Encode(bits.MustParse("111")))
	if err := e.SetPuncturePattern(Pattern34); err != nil {
		t.Fatalf("SetPuncturePattern() error = %v", err)
	}
	if e.State() != 0 || e.punctureIndex != 0 {
		t.Errorf("SetPuncturePattern() left state %d, puncture index %d", e.State(), e.punctureIndex)
	}
	if got := e.PuncturePattern().String(); got != "111001" {
		t.Errorf("PuncturePattern() = %s", got)
	}

	for _, p := range []string{"1", "110", "00"} {
		err := e.SetPuncturePattern(PuncturePattern(bits.MustParse(p)))
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("SetPuncturePattern(%s) error = %v, want ErrInvalidConfiguration", p, err)
		}
	}
	// rejected patterns leave the previous one in place
	if got := e.PuncturePattern().String(); got != "111001" {
		t.Errorf("PuncturePattern() = %s after rejected update", got)
	}

	if err := e.SetPuncturePattern(nil); err != nil {
		t.Fatalf("SetPuncturePattern(nil) error = %v", err)
	}
	if got := e.PuncturePattern().String(); got != "11" {
		t.Errorf("PuncturePattern() = %s, want default 11", got)
	}
}

func TestEncoder_PatternCopied(t *testing.T) {
	p := PuncturePattern(bits.MustParse("1110"))
	e := NewEncoder()
	if err := e.SetPuncturePattern(p); err != nil {
		t.Fatal(err)
	}
	p[0] = false
	if got := e.PuncturePattern().String(); got != "1110" {
		t.Errorf("PuncturePattern() = %s, caller mutation leaked", got)
	}
}

func randomBits(r *rand.Rand, n int) bits.Vector {
	v := bits.New(n)
	for i := range v {
		v[i] = r.IntN(2) == 1
	}
	return v
}

// randomPlaintext returns n random bits whose last 8 bits are zero.
func randomPlaintext(r *rand.Rand, n int) bits.Vector {
	v := randomBits(r, n)
	for i := n - 8; i < n; i++ {
		v[i] = false
	}
	return v
}
