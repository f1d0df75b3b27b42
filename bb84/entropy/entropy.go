// Package entropy provides the randomness consumed by a BB84 simulation:
// unbiased bits, uniform integers and permutations, and uniform reals for
// probabilistic gating.
//
// Production code should use Crypto, which draws from the operating system's
// CSPRNG. There is deliberately no fallback: if the underlying reader fails,
// every method returns an error wrapping ErrFailure and the caller must abort,
// since no key derived from weaker randomness can be trusted.
package entropy

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand"
)

// ErrFailure indicates that the underlying entropy source could not produce
// output.
var ErrFailure = errors.New("entropy: source failure")

// A Source supplies the random values used throughout the protocol. Tests
// substitute deterministic implementations.
type Source interface {
	// Bit returns 0 or 1 with equal probability.
	Bit() (byte, error)
	// Float64 returns a uniform value in [0, 1).
	Float64() (float64, error)
	// Intn returns a uniform value in [0, n). n must be positive.
	Intn(n int) (int, error)
	// Perm returns a uniform permutation of [0, n).
	Perm(n int) ([]int, error)
	// Read fills p with random bytes.
	Read(p []byte) (int, error)
}

// A Reader is a Source backed by a stream of random bytes. It is not safe for
// concurrent use.
type Reader struct {
	r io.Reader

	// Buffered bits, consumed from the least significant end.
	pending byte
	left    int
}

// New returns a Source drawing from r.
func New(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Crypto returns a Source drawing from crypto/rand.
func Crypto() *Reader {
	return New(crand.Reader)
}

// NewPRNG returns a reproducible Source seeded with seed. It is NOT suitable
// for generating real keys; use it for experiments and tests.
func NewPRNG(seed int64) *Reader {
	return New(rand.New(rand.NewSource(seed)))
}

// Read implements Source. Short reads from the underlying stream are reported
// as failures.
func (s *Reader) Read(p []byte) (int, error) {
	n, err := io.ReadFull(s.r, p)
	if err != nil {
		return n, fmt.Errorf("%w: reading %d bytes: %v", ErrFailure, len(p), err)
	}
	return n, nil
}

// Bit implements Source.
func (s *Reader) Bit() (byte, error) {
	if s.left == 0 {
		var b [1]byte
		if _, err := s.Read(b[:]); err != nil {
			return 0, err
		}
		s.pending, s.left = b[0], 8
	}
	bit := s.pending & 1
	s.pending >>= 1
	s.left--
	return bit, nil
}

// Float64 implements Source.
func (s *Reader) Float64() (float64, error) {
	v, err := s.uint64()
	if err != nil {
		return 0, err
	}
	return float64(v>>11) / (1 << 53), nil
}

// Intn implements Source. Values are rejection sampled so that every result is
// equally likely.
func (s *Reader) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("entropy: Intn called with non-positive bound %d", n)
	}
	bound := uint64(n)
	limit := ^uint64(0) - (^uint64(0)%bound+1)%bound
	for {
		v, err := s.uint64()
		if err != nil {
			return 0, err
		}
		if v <= limit {
			return int(v % bound), nil
		}
	}
}

// Perm implements Source using a Fisher-Yates shuffle.
func (s *Reader) Perm(n int) ([]int, error) {
	if n < 0 {
		return nil, fmt.Errorf("entropy: Perm called with negative size %d", n)
	}
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j, err := s.Intn(i + 1)
		if err != nil {
			return nil, err
		}
		p[i], p[j] = p[j], p[i]
	}
	return p, nil
}

func (s *Reader) uint64() (uint64, error) {
	var b [8]byte
	if _, err := s.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}
