package photon

import (
	"fmt"

	"github.com/qkdsim/bb84/bb84/entropy"
)

// A Record captures everything that happened in one transmission slot.
type Record struct {
	AliceBit    byte
	AliceBasis  Basis
	BobBasis    Basis
	BobBit      byte
	Intercepted bool
}

// An Eavesdropper mounts an intercept-resend attack: she measures a fraction
// of the qubits in a random basis and forwards a fresh qubit prepared from
// her own result.
type Eavesdropper struct {
	// InterceptRate is the per-slot probability of interception, in [0, 1].
	InterceptRate float64
}

// Intercept possibly intercepts s. It returns the state delivered onward, and
// whether it was intercepted.
func (e *Eavesdropper) Intercept(s State, r entropy.Source) (State, bool, error) {
	roll, err := r.Float64()
	if err != nil {
		return State{}, false, err
	}
	if roll >= e.InterceptRate {
		return s, false, nil
	}
	basis, err := RandomBasis(r)
	if err != nil {
		return State{}, false, err
	}
	bit, err := Measure(s, basis, r)
	if err != nil {
		return State{}, false, err
	}
	return State{Bit: bit, Basis: basis}, true, nil
}

// A Channel simulates the quantum channel between Alice and Bob, with an
// optional eavesdropper sitting on it.
type Channel struct {
	// Eve, if non-nil, has access to every qubit in flight.
	Eve *Eavesdropper
	// Rand supplies the randomness for Alice, Bob and Eve. Must be non-nil.
	Rand entropy.Source
}

// Transmit runs n independent transmission slots and returns their records in
// slot order.
func (c *Channel) Transmit(n int) ([]Record, error) {
	if c.Rand == nil {
		return nil, fmt.Errorf("transmitting on a channel without a randomness source")
	}
	records := make([]Record, n)
	for i := range records {
		if err := c.slot(&records[i]); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
	}
	return records, nil
}

func (c *Channel) slot(rec *Record) error {
	sent, err := Prepare(c.Rand)
	if err != nil {
		return err
	}
	bobBasis, err := RandomBasis(c.Rand)
	if err != nil {
		return err
	}
	delivered := sent
	if c.Eve != nil {
		delivered, rec.Intercepted, err = c.Eve.Intercept(sent, c.Rand)
		if err != nil {
			return err
		}
	}
	bobBit, err := Measure(delivered, bobBasis, c.Rand)
	if err != nil {
		return err
	}
	rec.AliceBit, rec.AliceBasis = sent.Bit, sent.Basis
	rec.BobBasis, rec.BobBit = bobBasis, bobBit
	return nil
}

// InterceptedCount returns the number of records Eve intercepted.
func InterceptedCount(records []Record) int {
	var n int
	for _, r := range records {
		if r.Intercepted {
			n++
		}
	}
	return n
}
