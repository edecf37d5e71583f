package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Hash represents a cryptographic hash
type Hash string

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex characters.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// DatasetHash fingerprints a batch of runs.
type DatasetHash Hash

func (h DatasetHash) String() string { return Hash(h).String() }

// ComputeDatasetHash hashes the exact bits of every value together with the
// run boundaries, so [[1,2],[3]] and [[1],[2,3]] differ.
func ComputeDatasetHash(runs [][]float64) DatasetHash {
	h := sha256.New()
	var buf [8]byte
	for _, run := range runs {
		binary.BigEndian.PutUint64(buf[:], uint64(len(run)))
		h.Write(buf[:])
		for _, v := range run {
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return DatasetHash(hex.EncodeToString(h.Sum(nil)))
}
