// Package kvstore implements the sharded key-value store: a node asks a
// shared ring.View which bucket a key belongs to, and only touches local
// data if it owns that bucket. A Store never computes ownership itself,
// it defers entirely to the View it was constructed with.
package kvstore
