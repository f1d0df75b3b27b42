// Package photon provides a statistical model of polarization-encoded qubits.
//
// No quantum state is represented. A qubit is just the bit and basis it was
// prepared with, and measuring it obeys a single rule: a measurement in the
// preparation basis reproduces the prepared bit, while a measurement in the
// conjugate basis yields a uniformly random bit.
package photon

import "github.com/qkdsim/bb84/bb84/entropy"

// A Basis is one of the two conjugate BB84 measurement orientations.
type Basis uint8

const (
	// Z is the rectilinear (+) basis.
	Z Basis = 0
	// X is the diagonal (x) basis.
	X Basis = 1
)

func (b Basis) String() string {
	if b == Z {
		return "Z"
	}
	return "X"
}

// A State is a qubit as prepared by a sender: the bit it encodes and the basis
// it was encoded in.
type State struct {
	Bit   byte
	Basis Basis
}

// RandomBasis draws a uniformly random basis.
func RandomBasis(r entropy.Source) (Basis, error) {
	b, err := r.Bit()
	return Basis(b), err
}

// Prepare draws a uniformly random bit and basis, in that order.
func Prepare(r entropy.Source) (State, error) {
	bit, err := r.Bit()
	if err != nil {
		return State{}, err
	}
	basis, err := RandomBasis(r)
	if err != nil {
		return State{}, err
	}
	return State{Bit: bit, Basis: basis}, nil
}

// Measure measures s in basis b. Randomness is only consumed when the bases
// differ.
func Measure(s State, b Basis, r entropy.Source) (byte, error) {
	if s.Basis == b {
		return s.Bit, nil
	}
	return r.Bit()
}
