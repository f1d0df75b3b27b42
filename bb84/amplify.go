package bb84

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"io"

	"github.com/qkdsim/bb84/bb84/bitarray"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// An Extractor names a privacy amplification function.
//
// The hash extractors compute digest(rawKey || salt) and keep the leading
// bytes. This is a simplified stand-in for privacy amplification: it relies on
// the one-wayness of the hash and carries no information-theoretic guarantee
// about what Eve may know of the final key. Toeplitz is a genuine 2-universal
// family, for which the leftover hash lemma applies.
type Extractor string

const (
	SHA256     Extractor = "sha256"
	SHA3_256   Extractor = "sha3-256"
	BLAKE2b256 Extractor = "blake2b-256"
	Toeplitz   Extractor = "toeplitz"
)

// Extractors lists every supported Extractor.
var Extractors = []Extractor{SHA256, SHA3_256, BLAKE2b256, Toeplitz}

// digestSize returns the output size in bytes of a hash extractor, 0 for
// extractors without a fixed output size, and false for unknown extractors.
func (e Extractor) digestSize() (int, bool) {
	switch e {
	case SHA256, SHA3_256, BLAKE2b256:
		return 32, true
	case Toeplitz:
		return 0, true
	}
	return 0, false
}

func (e Extractor) newHash() func() hash.Hash {
	switch e {
	case SHA3_256:
		return sha3.New256
	case BLAKE2b256:
		return func() hash.Hash {
			// Only fails for keys longer than 64 bytes.
			h, _ := blake2b.New256(nil)
			return h
		}
	}
	return sha256.New
}

// seedBytes returns how much randomness e consumes to compress rawBits bits
// into outBytes bytes.
func (e Extractor) seedBytes(rawBits, outBytes, saltBytes int) int {
	if e == Toeplitz {
		return bitarray.BytesFor(rawBits + 8*outBytes - 1)
	}
	return saltBytes
}

// HashAmplify hashes raw followed by salt with newHash and returns the leading
// outBytes bytes of the digest. The output is fully determined by its inputs.
func HashAmplify(newHash func() hash.Hash, raw, salt []byte, outBytes int) ([]byte, error) {
	h := newHash()
	if outBytes < 1 || outBytes > h.Size() {
		return nil, fmt.Errorf("%w: cannot take %d bytes of a %d-byte digest", ErrInvalidConfig, outBytes, h.Size())
	}
	h.Write(raw)
	h.Write(salt)
	return h.Sum(nil)[:outBytes], nil
}

// ToeplitzAmplify multiplies raw by the (8*outBytes) x len(raw) Toeplitz
// matrix whose diagonals are taken from seed. raw must hold at least as many
// bits as the output.
func ToeplitzAmplify(raw bitarray.Dense, seed []byte, outBytes int) ([]byte, error) {
	m := 8 * outBytes
	if raw.Size() < m {
		return nil, fmt.Errorf("%w: %d raw bits, need at least %d", ErrInsufficientRawKey, raw.Size(), m)
	}
	t := toeplitz{
		diags: bitarray.NewDense(seed, -1),
		m:     m,
		n:     raw.Size(),
	}
	out, err := t.Mul(raw)
	if err != nil {
		return nil, err
	}
	return out.PackMSB(), nil
}

// Amplify compresses raw into outBytes bytes with e, using seed as the salt or
// Toeplitz seed.
func (e Extractor) Amplify(raw bitarray.Dense, seed []byte, outBytes int) ([]byte, error) {
	if _, ok := e.digestSize(); !ok {
		return nil, fmt.Errorf("%w: unknown extractor %q", ErrInvalidConfig, e)
	}
	if e == Toeplitz {
		return ToeplitzAmplify(raw, seed, outBytes)
	}
	return HashAmplify(e.newHash(), raw.PackMSB(), seed, outBytes)
}

// amplify draws a fresh seed from r, unless one was injected, and runs e.
func amplify(e Extractor, raw bitarray.Dense, r io.Reader, injected []byte, outBytes, saltBytes int) ([]byte, error) {
	seed := injected
	if seed == nil {
		seed = make([]byte, e.seedBytes(raw.Size(), outBytes, saltBytes))
		if _, err := io.ReadFull(r, seed); err != nil {
			return nil, fmt.Errorf("drawing salt: %w", err)
		}
	}
	return e.Amplify(raw, seed, outBytes)
}
