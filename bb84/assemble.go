package bb84

import "github.com/qkdsim/bb84/bb84/bitarray"

// RawKey returns Bob's sifted bits at the positions not revealed by mask,
// in sifted order. Together with the sample it covers every sifted position
// exactly once.
func RawKey(s Sifted, mask bitarray.Dense) bitarray.Dense {
	return s.Bob.Select(mask.Not())
}
