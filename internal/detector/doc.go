// Package detector drives the SWIM-style failure-detection loops on top of
// internal/gossip and internal/membership: a report loop that periodically
// gossips with a random subset of alive neighbors (suspecting, and asking
// others to forward-probe, any that don't respond), and an eviction loop
// that declares a long-suspected server dead once its grace period
// expires.
package detector
