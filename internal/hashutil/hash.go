// Package hashutil provides the consistent-hashing primitive shared by the
// ring and membership packages: a deterministic, approximately uniform
// mapping from arbitrary bytes to a point on [0, 1).
package hashutil

import (
	"crypto/md5" //nolint:gosec // not used for security, only for uniform hash spreading
	"encoding/binary"
)

// hashBase and hashModulo are the folding constants for ConsistentHash.
// Changing either value changes the ring layout for every existing
// deployment, so they are fixed rather than configurable.
const (
	hashBase   = 13
	hashModulo = 32497
)

// ConsistentHash maps an arbitrary byte string onto [0, 1). It hashes the
// input with MD5, then folds the sixteen digest bytes into eight base-13
// digits (two bytes each), sums them, and reduces modulo hashModulo.
//
// The mapping is deterministic and stable across processes: the same bytes
// always produce the same hash value, regardless of which node computes it,
// which is the property the ring and the membership code both depend on.
func ConsistentHash(msg []byte) float64 {
	digest := md5.Sum(msg) //nolint:gosec

	var sum uint64
	base := uint64(1)
	for i := 0; i < len(digest); i += 2 {
		sum += base * (uint64(digest[i]) + uint64(digest[i+1])*16)
		base *= hashBase
	}

	return float64(sum%hashModulo) / float64(hashModulo)
}

// HashString is a convenience wrapper around ConsistentHash for string keys.
func HashString(s string) float64 {
	return ConsistentHash([]byte(s))
}

// HashInt maps an integral key onto [0, 1) using the same algorithm as
// ConsistentHash, so integer-keyed callers (e.g. shard or partition IDs)
// land in the same hash space as string keys.
func HashInt(n int64) float64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	return ConsistentHash(buf[:])
}

// Tolerance is the absolute difference below which two hash values are
// treated as equal by the ring's lookup structure (spec: ring keys compared
// with epsilon 1e-5).
const Tolerance = 1e-5

// NearlyEqual reports whether a and b are within Tolerance of one another.
func NearlyEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= Tolerance
}
