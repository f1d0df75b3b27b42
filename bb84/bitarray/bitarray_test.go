package bitarray

import (
	"bytes"
	"testing"
)

func mustDense(t *testing.T, s string) Dense {
	t.Helper()
	d, err := FromString(s)
	if err != nil {
		t.Fatalf("FromString(%q): %v", s, err)
	}
	return d
}

func TestAnd(t *testing.T) {
	tcs := []struct {
		name string
		a    Dense
		b    Dense
		eout Dense
	}{
		{
			name: "aligned",
			a:    Dense{bits: []byte{0b101}, len: 8},
			b:    Dense{bits: []byte{0b110}, len: 8},
			eout: Dense{bits: []byte{0b100}, len: 8},
		}, {
			name: "short a",
			a:    Dense{bits: []byte{0b101}, len: 8},
			b:    Dense{bits: []byte{0b110, 0b1}, len: 9},
			eout: Dense{bits: []byte{0b100}, len: 8},
		}, {
			name: "short b",
			a:    Dense{bits: []byte{0b101, 0b1}, len: 9},
			b:    Dense{bits: []byte{0b110}, len: 8},
			eout: Dense{bits: []byte{0b100}, len: 8},
		}, {
			name: "empty a",
			b:    Dense{bits: []byte{0b110}, len: 8},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.a.And(tc.b)
			if out.len != tc.eout.len {
				t.Errorf("got bitarray of len %d, want %d", out.len, tc.eout.len)
			}
			if !bytes.Equal(out.Data(), tc.eout.Data()) {
				t.Errorf("and(%v, %v) == %v, want %v", tc.a.bits, tc.b.bits, out.Data(), tc.eout.Data())
			}
		})
	}
}

func TestXOr(t *testing.T) {
	tcs := []struct {
		name string
		a    Dense
		b    Dense
		eout Dense
	}{
		{
			name: "aligned",
			a:    Dense{bits: []byte{0b101}, len: 8},
			b:    Dense{bits: []byte{0b110}, len: 8},
			eout: Dense{bits: []byte{0b011}, len: 8},
		}, {
			name: "short a",
			a:    Dense{bits: []byte{0b101}, len: 8},
			b:    Dense{bits: []byte{0b110, 0b1}, len: 9},
			eout: Dense{bits: []byte{0b011, 0b1}, len: 9},
		}, {
			name: "empty b",
			a:    Dense{bits: []byte{0b110}, len: 8},
			eout: Dense{bits: []byte{0b110}, len: 8},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.a.XOr(tc.b)
			if out.len != tc.eout.len {
				t.Errorf("got bitarray of len %d, want %d", out.len, tc.eout.len)
			}
			if !bytes.Equal(out.Data(), tc.eout.Data()) {
				t.Errorf("xor(%v, %v) == %v, want %v", tc.a.bits, tc.b.bits, out.Data(), tc.eout.Data())
			}
		})
	}
}

func TestNot(t *testing.T) {
	tcs := []struct {
		name string
		a    Dense
		eout Dense
	}{
		{
			name: "one byte",
			a:    Dense{bits: []byte{0b00000101}, len: 8},
			eout: Dense{bits: []byte{0b11111010}, len: 8},
		}, {
			name: "unaligned",
			a:    Dense{bits: []byte{0b101}, len: 3},
			eout: Dense{bits: []byte{0b010}, len: 3},
		}, {
			name: "empty",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.a.Not()
			if out.len != tc.eout.len {
				t.Errorf("got bitarray of len %d, want %d", out.len, tc.eout.len)
			}
			if !bytes.Equal(out.Data(), tc.eout.Data()) {
				t.Errorf("not(%v) == %v, want %v", tc.a.bits, out.Data(), tc.eout.Data())
			}
			if got, want := out.CountOnes(), tc.a.len-tc.a.CountOnes(); got != want {
				t.Errorf("not(%v) has %d ones, want %d", tc.a.bits, got, want)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	tcs := []struct {
		name string
		bits Dense
		mask Dense
		eout Dense
	}{
		{
			name: "all",
			bits: Dense{bits: []byte{0b11101101}, len: 8},
			mask: Dense{bits: []byte{0b11111111}, len: 8},
			eout: Dense{bits: []byte{0b11101101}, len: 8},
		}, {
			name: "none",
			bits: Dense{bits: []byte{0b1101101}, len: 8},
		}, {
			name: "some",
			bits: Dense{bits: []byte{0b11101101, 0b0010101}, len: 13},
			mask: Dense{bits: []byte{0b10001011, 0b0101011}, len: 15},
			eout: Dense{bits: []byte{0b0011101}, len: 7},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.bits.Select(tc.mask)
			if out.len != tc.eout.len {
				t.Errorf("got bitarray of len %d, want %d", out.len, tc.eout.len)
			}
			if !bytes.Equal(out.Data(), tc.eout.Data()) {
				t.Errorf("select(%v, %v) == %v, want %v", tc.bits.bits, tc.mask.bits, out.Data(), tc.eout.Data())
			}
		})
	}
}

func TestSlice(t *testing.T) {
	tcs := []struct {
		name  string
		start int
		end   int
		bits  Dense
		eout  Dense
	}{
		{
			name:  "full slice",
			bits:  Dense{bits: []byte{0b11101101}, len: 8},
			start: 0,
			end:   8,
			eout:  Dense{bits: []byte{0b11101101}, len: 8},
		}, {
			name: "empty slice",
			bits: Dense{bits: []byte{0b11101101}, len: 8},
		}, {
			name:  "aligned",
			bits:  Dense{bits: []byte{0b1, 0b11101101, 0b1}, len: 24},
			start: 8,
			end:   16,
			eout:  Dense{bits: []byte{0b11101101}, len: 8},
		}, {
			name:  "unaligned start",
			bits:  Dense{bits: []byte{0b10, 0b1, 0b1}, len: 24},
			start: 1,
			end:   16,
			eout:  Dense{bits: []byte{0b10000001, 0}, len: 15},
		}, {
			name:  "unaligned across blocks",
			bits:  Dense{bits: []byte{0b10000000, 0b1}, len: 16},
			start: 7,
			end:   9,
			eout:  Dense{bits: []byte{0b11}, len: 2},
		}, {
			name:  "unaligned end",
			bits:  Dense{bits: []byte{0b11111111, 0, 0b1}, len: 24},
			start: 8,
			end:   17,
			eout:  Dense{bits: []byte{0, 0b1}, len: 9},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			sArr, err := tc.bits.Slice(tc.start, tc.end)
			if err != nil {
				t.Fatalf("slice(%d, %d) = %v, want nil error", tc.start, tc.end, err)
			}
			if sArr.len != tc.eout.len {
				t.Errorf("got bitarray of len %d, want %d", sArr.len, tc.eout.len)
			}
			sData := sArr.Data()
			eData := tc.eout.Data()
			if !bytes.Equal(sData, eData) {
				t.Errorf("slice(%v, %d, %d) == %v, want %v", tc.bits.bits, tc.start, tc.end, sData, eData)
			}
		})
	}
}

func TestSliceOutOfRange(t *testing.T) {
	d := NewDense(nil, 8)
	for _, r := range [][2]int{{0, 9}, {-1, 3}, {5, 4}} {
		if _, err := d.Slice(r[0], r[1]); err == nil {
			t.Errorf("slice(%d, %d) of 8 bits succeeded, want error", r[0], r[1])
		}
	}
}

func TestPackMSB(t *testing.T) {
	tcs := []struct {
		name string
		bits string
		want []byte
	}{
		{"full byte", "10110000", []byte{0xB0}},
		{"single bit", "1", []byte{0x80}},
		{"padded tail", "11111111 101", []byte{0xFF, 0xA0}},
		{"empty", "", []byte{}},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := mustDense(t, tc.bits).PackMSB()
			if got == nil {
				t.Fatalf("PackMSB() returned nil")
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("PackMSB(%s) == %x, want %x", tc.bits, got, tc.want)
			}
		})
	}
}

func TestSetAndAppend(t *testing.T) {
	d := NewDense(nil, 10)
	d.Set(0, true)
	d.Set(9, true)
	d.Set(0, false)
	if got, want := d.String(), "0000000001"; got != want {
		t.Errorf("after Set: %s, want %s", got, want)
	}

	s, err := d.Slice(3, 10)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	s.AppendBit(true)
	if got, want := s.String(), "00000011"; got != want {
		t.Errorf("append to slice: %s, want %s", got, want)
	}
	if got, want := d.String(), "0000000001"; got != want {
		t.Errorf("append to slice modified parent: %s, want %s", got, want)
	}
}
