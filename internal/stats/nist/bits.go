// Package nist runs a subset of the NIST SP 800-22 bitwise randomness tests
// against the IEEE-754 encoding of a numeric sequence.
package nist

import (
	"encoding/binary"
	"math"
)

// BitsPerNumber is the width of one encoded float64.
const BitsPerNumber = 64

// NumbersToBinary expands every value into the 64 bits of its big-endian
// IEEE-754 double representation, most significant bit first.
func NumbersToBinary(xs []float64) []uint8 {
	bits := make([]uint8, 0, len(xs)*BitsPerNumber)
	var buf [8]byte
	for _, x := range xs {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(x))
		for _, b := range buf {
			for i := 7; i >= 0; i-- {
				bits = append(bits, (b>>uint(i))&1)
			}
		}
	}
	return bits
}

func countOnes(bits []uint8) int {
	ones := 0
	for _, b := range bits {
		ones += int(b)
	}
	return ones
}
