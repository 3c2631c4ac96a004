package main

import (
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/jancona/convfec/bits"
	"github.com/jancona/convfec/conv"
)

// Zero bits ending each self test block, returning the encoder to state zero
const tailBits = conv.ConstraintK + 1

type selfTestResult struct {
	Profile        string
	Blocks         int
	BlockBits      int
	InjectedErrors int
	ResidualErrors int
	FailedBlocks   int
}

func (r selfTestResult) BER() float64 {
	total := r.Blocks * r.BlockBits
	if total == 0 {
		return 0
	}
	return float64(r.ResidualErrors) / float64(total)
}

func (r selfTestResult) String() string {
	return fmt.Sprintf("rate %s: %d blocks of %d bits, %d injected errors, %d residual errors in %d blocks, BER %.2e",
		r.Profile, r.Blocks, r.BlockBits, r.InjectedErrors, r.ResidualErrors, r.FailedBlocks, r.BER())
}

// selfTest encodes random terminated blocks, flips errs distinct coded bits in each
// and counts the plaintext bits the decoder gets wrong.
func selfTest(p conv.Profile, n, errs, blocks int, r *rand.Rand) (selfTestResult, error) {
	res := selfTestResult{Profile: p.Name, Blocks: blocks}
	enc, err := p.NewEncoder()
	if err != nil {
		return res, err
	}
	dec, err := p.NewDecoder()
	if err != nil {
		return res, err
	}

	// Block length must map to whole puncture periods
	align := p.Pattern.Len() / 2
	n = max(n, tailBits+1)
	n = (n + align - 1) / align * align
	res.BlockBits = n

	for b := range blocks {
		plain := bits.New(n)
		for i := range n - tailBits {
			plain[i] = r.IntN(2) == 1
		}
		enc.Reset()
		coded, err := enc.Encode(plain)
		if err != nil {
			return res, err
		}
		if errs > len(coded) {
			return res, fmt.Errorf("%d errors requested, block has only %d coded bits", errs, len(coded))
		}
		for _, pos := range r.Perm(len(coded))[:errs] {
			coded.FlipBit(pos)
		}
		res.InjectedErrors += errs

		decoded, err := dec.DecodeTerminated(coded)
		if err != nil {
			return res, err
		}
		diff, err := bits.HammingDistance(plain, decoded)
		if err != nil {
			return res, err
		}
		log.Printf("[DEBUG] Block %d: %d errors injected, path metric %d, %d residual errors", b, errs, dec.PathMetric(), diff)
		if diff > 0 {
			res.ResidualErrors += diff
			res.FailedBlocks++
		}
	}
	return res, nil
}
