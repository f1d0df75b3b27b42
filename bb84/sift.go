package bb84

import (
	"fmt"

	"github.com/qkdsim/bb84/bb84/bitarray"
	"github.com/qkdsim/bb84/bb84/entropy"
	"github.com/qkdsim/bb84/bb84/photon"
)

// A Sifted holds the transmission slots in which Alice and Bob happened to
// choose the same basis, in slot order.
type Sifted struct {
	Alice bitarray.Dense
	Bob   bitarray.Dense

	// Slots[j] is the transmission slot that sifted bit j came from.
	Slots []int
}

// Len returns the number of sifted bits.
func (s Sifted) Len() int {
	return len(s.Slots)
}

// An Estimate is the outcome of comparing a random sample of sifted bits.
type Estimate struct {
	SampleCount int
	Errors      int
	QBER        float64
}

// Sift keeps the records whose bases agree.
func Sift(records []photon.Record) Sifted {
	var s Sifted
	for i, r := range records {
		if r.AliceBasis != r.BobBasis {
			continue
		}
		s.Alice.AppendBit(r.AliceBit == 1)
		s.Bob.AppendBit(r.BobBit == 1)
		s.Slots = append(s.Slots, i)
	}
	return s
}

// SampleCount returns how many of siftLen sifted bits are revealed at the
// given ratio: floor(siftLen*ratio), but never less than one.
func SampleCount(siftLen int, ratio float64) int {
	return max(1, int(float64(siftLen)*ratio))
}

// Sample picks SampleCount(siftLen, ratio) distinct sifted positions
// uniformly at random. It returns them as a mask over [0, siftLen).
func Sample(siftLen int, ratio float64, r entropy.Source) (bitarray.Dense, int, error) {
	if siftLen == 0 {
		return bitarray.Empty(), 0, ErrInsufficientSiftedBits
	}
	k := min(SampleCount(siftLen, ratio), siftLen)
	order, err := r.Perm(siftLen)
	if err != nil {
		return bitarray.Empty(), 0, fmt.Errorf("permuting sifted bits: %w", err)
	}
	mask := bitarray.NewDense(nil, siftLen)
	for _, i := range order[:k] {
		mask.Set(i, true)
	}
	return mask, k, nil
}

// EstimateQBER counts disagreements between Alice and Bob on the sampled
// positions.
func EstimateQBER(s Sifted, mask bitarray.Dense) Estimate {
	n := mask.CountOnes()
	if n == 0 {
		return Estimate{}
	}
	errors := s.Alice.Select(mask).XOr(s.Bob.Select(mask)).CountOnes()
	return Estimate{
		SampleCount: n,
		Errors:      errors,
		QBER:        float64(errors) / float64(n),
	}
}

// Suspicious reports whether qber exceeds threshold. A QBER exactly at the
// threshold is accepted.
func Suspicious(qber, threshold float64) bool {
	return qber > threshold
}
