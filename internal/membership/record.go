package membership

import "time"

// Record is what the membership tables store for each known server: which
// server, when it was last known good (or first suspected), whether it's
// already been gossiped about, and — for suspected records —
// who reported it.
type Record struct {
	Server Server

	// Timestamp is when this record was created: last-contact time for an
	// alive record, first-suspicion time for a suspected one.
	Timestamp time.Time

	// DidGossip marks that this record has already been included in an
	// outgoing report. It stays set across report rounds until the record
	// is replaced by a fresh one (MarkAlive or a merged report), so each
	// record is sent once.
	DidGossip bool

	// Forwarder names the server that reported Server as suspected, if
	// this record didn't originate locally. Zero value means "observed
	// directly".
	Forwarder Server
	hasForwarder bool
}

// NewRecord builds an alive/suspected record for server, timestamped now.
func NewRecord(server Server, now time.Time) Record {
	return Record{Server: server, Timestamp: now}
}

// NewForwardedRecord builds a record noting that forwarder is the one who
// reported server, rather than this process observing it directly.
func NewForwardedRecord(server, forwarder Server, now time.Time) Record {
	return Record{Server: server, Timestamp: now, Forwarder: forwarder, hasForwarder: true}
}

// HasForwarder reports whether this record carries a forwarder.
func (r Record) HasForwarder() bool {
	return r.hasForwarder
}

// Less orders records the way the original orders ServerRecords: purely by
// the underlying Server, ignoring the timestamp. This is what lets records
// live in a sorted/deduplicated structure keyed on server identity.
func (r Record) Less(other Record) bool {
	return r.Server.Less(other.Server)
}
