package bb84

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// maxFrame bounds the size of a framed Result, guarding ReadResult against
// allocating on a corrupt length prefix.
const maxFrame = 1 << 16

// Protobuf field numbers of an encoded Result.
const (
	fieldQubitCount       protowire.Number = 1
	fieldEveEnabled       protowire.Number = 2
	fieldInterceptRate    protowire.Number = 3
	fieldInterceptedCount protowire.Number = 4
	fieldSiftedLength     protowire.Number = 5
	fieldSampleCount      protowire.Number = 6
	fieldSampleErrors     protowire.Number = 7
	fieldQBER             protowire.Number = 8
	fieldQBERThreshold    protowire.Number = 9
	fieldQBERUpperBound   protowire.Number = 10
	fieldSuspicious       protowire.Number = 11
	fieldRawKeyBitCount   protowire.Number = 12
	fieldExtractor        protowire.Number = 13
	fieldFinalKeyHex      protowire.Number = 14
)

// WriteResult writes r to w as a framed protocol buffer. The structure of the
// frame is trivial:  proto-length | proto
//
// This is how a Result crosses a process boundary, e.g. to the token issuer.
// The frame is neither encrypted nor authenticated.
func WriteResult(w io.Writer, r Result) error {
	marshalled := MarshalResult(r)
	if err := binary.Write(w, binary.LittleEndian, int32(len(marshalled))); err != nil {
		return err
	}
	if _, err := w.Write(marshalled); err != nil {
		return err
	}
	return nil
}

// ReadResult reads one Result written by WriteResult.
func ReadResult(rd io.Reader) (Result, error) {
	var mLen int32
	if err := binary.Read(rd, binary.LittleEndian, &mLen); err != nil {
		return Result{}, err
	}
	if mLen < 0 || mLen > maxFrame {
		return Result{}, fmt.Errorf("invalid result frame length %d", mLen)
	}
	marshalled := make([]byte, mLen)
	if _, err := io.ReadFull(rd, marshalled); err != nil {
		return Result{}, err
	}
	return UnmarshalResult(marshalled)
}

// MarshalResult encodes r in protobuf wire format.
func MarshalResult(r Result) []byte {
	var b []byte
	b = appendVarint(b, fieldQubitCount, uint64(r.QubitCount))
	b = appendVarint(b, fieldEveEnabled, protowire.EncodeBool(r.EveEnabled))
	b = appendDouble(b, fieldInterceptRate, r.InterceptRate)
	b = appendVarint(b, fieldInterceptedCount, uint64(r.InterceptedCount))
	b = appendVarint(b, fieldSiftedLength, uint64(r.SiftedLength))
	b = appendVarint(b, fieldSampleCount, uint64(r.SampleCount))
	b = appendVarint(b, fieldSampleErrors, uint64(r.SampleErrors))
	b = appendDouble(b, fieldQBER, r.QBER)
	b = appendDouble(b, fieldQBERThreshold, r.QBERThreshold)
	b = appendDouble(b, fieldQBERUpperBound, r.QBERUpperBound)
	b = appendVarint(b, fieldSuspicious, protowire.EncodeBool(r.Suspicious))
	b = appendVarint(b, fieldRawKeyBitCount, uint64(r.RawKeyBitCount))
	b = protowire.AppendTag(b, fieldExtractor, protowire.BytesType)
	b = protowire.AppendString(b, string(r.Extractor))
	b = protowire.AppendTag(b, fieldFinalKeyHex, protowire.BytesType)
	b = protowire.AppendString(b, r.FinalKeyHex)
	return b
}

// UnmarshalResult decodes a Result from protobuf wire format. Unknown fields
// are skipped.
func UnmarshalResult(b []byte) (Result, error) {
	var r Result
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Result{}, fmt.Errorf("decoding result tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Result{}, fmt.Errorf("decoding result field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			r.setVarint(num, v)
		case typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return Result{}, fmt.Errorf("decoding result field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			r.setDouble(num, math.Float64frombits(v))
		case typ == protowire.BytesType && (num == fieldExtractor || num == fieldFinalKeyHex):
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Result{}, fmt.Errorf("decoding result field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			if num == fieldExtractor {
				r.Extractor = Extractor(v)
			} else {
				r.FinalKeyHex = v
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Result{}, fmt.Errorf("skipping result field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return r, nil
}

func (r *Result) setVarint(num protowire.Number, v uint64) {
	switch num {
	case fieldQubitCount:
		r.QubitCount = int(v)
	case fieldEveEnabled:
		r.EveEnabled = protowire.DecodeBool(v)
	case fieldInterceptedCount:
		r.InterceptedCount = int(v)
	case fieldSiftedLength:
		r.SiftedLength = int(v)
	case fieldSampleCount:
		r.SampleCount = int(v)
	case fieldSampleErrors:
		r.SampleErrors = int(v)
	case fieldSuspicious:
		r.Suspicious = protowire.DecodeBool(v)
	case fieldRawKeyBitCount:
		r.RawKeyBitCount = int(v)
	}
}

func (r *Result) setDouble(num protowire.Number, v float64) {
	switch num {
	case fieldInterceptRate:
		r.InterceptRate = v
	case fieldQBER:
		r.QBER = v
	case fieldQBERThreshold:
		r.QBERThreshold = v
	case fieldQBERUpperBound:
		r.QBERUpperBound = v
	}
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}
