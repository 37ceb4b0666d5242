package membership

import (
	"math/rand/v2"
	"sync"
	"time"
)

// maxNeighborCollisions bounds how many times RandomNeighbors will draw a
// server it has already picked before giving up and returning what it has.
// Ported from the detector's GetUniqueNeighbors cutoff: once a random draw
// collides with an already-picked server more than this many times in a
// row, the alive set is presumed exhausted.
const maxNeighborCollisions = 3

// Tables holds the two membership sets a gossip participant maintains: the
// servers it currently believes alive, and the servers it suspects have
// failed. The two sets are guarded by independent locks so that a reader of
// one set never blocks on the other. Code that must touch both always
// locks Alive before Suspected, matching the rest of the module's
// lock-ordering rule.
//
// Tables never itself does network I/O; callers are expected to copy data
// out (via the snapshot and selection methods below) before making any
// gossip call, so a table lock is never held across a send or receive.
type Tables struct {
	aliveMu sync.RWMutex
	alive   map[Server]Record

	suspectedMu sync.RWMutex
	suspected   map[Server]Record
}

// NewTables returns an empty set of membership tables.
func NewTables() *Tables {
	return &Tables{
		alive:     make(map[Server]Record),
		suspected: make(map[Server]Record),
	}
}

// MarkAlive records server as alive as of now, refreshing its timestamp if
// it was already known, and removes it from the suspected set if present
// there — a fresh sighting clears any prior suspicion.
func (t *Tables) MarkAlive(server Server, now time.Time) {
	t.aliveMu.Lock()
	t.alive[server] = NewRecord(server, now)
	t.aliveMu.Unlock()

	t.suspectedMu.Lock()
	delete(t.suspected, server)
	t.suspectedMu.Unlock()
}

// MarkSuspected moves server from alive to suspected, recording who
// reported it (the zero Server means "observed directly"). If server
// wasn't already in the alive set it is still added to suspected: the
// detector may suspect a server it only heard about from a report.
func (t *Tables) MarkSuspected(server, forwarder Server, hasForwarder bool, now time.Time) {
	t.aliveMu.Lock()
	delete(t.alive, server)
	t.aliveMu.Unlock()

	rec := NewRecord(server, now)
	if hasForwarder {
		rec = NewForwardedRecord(server, forwarder, now)
	}

	t.suspectedMu.Lock()
	t.suspected[server] = rec
	t.suspectedMu.Unlock()
}

// Remove drops server from both tables entirely, e.g. after an operator
// explicitly decommissions it.
func (t *Tables) Remove(server Server) {
	t.aliveMu.Lock()
	delete(t.alive, server)
	t.aliveMu.Unlock()

	t.suspectedMu.Lock()
	delete(t.suspected, server)
	t.suspectedMu.Unlock()
}

// IsAlive reports whether server is currently in the alive set.
func (t *Tables) IsAlive(server Server) bool {
	t.aliveMu.RLock()
	defer t.aliveMu.RUnlock()
	_, ok := t.alive[server]
	return ok
}

// IsSuspected reports whether server is currently in the suspected set.
func (t *Tables) IsSuspected(server Server) bool {
	t.suspectedMu.RLock()
	defer t.suspectedMu.RUnlock()
	_, ok := t.suspected[server]
	return ok
}

// AliveCount returns the number of servers currently believed alive.
func (t *Tables) AliveCount() int {
	t.aliveMu.RLock()
	defer t.aliveMu.RUnlock()
	return len(t.alive)
}

// SuspectedCount returns the number of servers currently under suspicion.
func (t *Tables) SuspectedCount() int {
	t.suspectedMu.RLock()
	defer t.suspectedMu.RUnlock()
	return len(t.suspected)
}

// AliveSnapshot returns a copy of every alive record, safe to read or send
// over the wire without holding any table lock.
func (t *Tables) AliveSnapshot() []Record {
	t.aliveMu.RLock()
	defer t.aliveMu.RUnlock()
	out := make([]Record, 0, len(t.alive))
	for _, rec := range t.alive {
		out = append(out, rec)
	}
	return out
}

// SuspectedSnapshot returns a copy of every suspected record.
func (t *Tables) SuspectedSnapshot() []Record {
	t.suspectedMu.RLock()
	defer t.suspectedMu.RUnlock()
	out := make([]Record, 0, len(t.suspected))
	for _, rec := range t.suspected {
		out = append(out, rec)
	}
	return out
}

// RandomNeighbors draws up to n distinct alive servers, other than
// exclude (the local server, which never gossips to itself). Because the
// alive set has no stable iteration order, distinctness is enforced by
// resampling: if a draw repeats an already-picked server more than
// maxNeighborCollisions times in a row, the alive set is presumed
// exhausted and the partial result is returned rather than spinning
// forever.
func (t *Tables) RandomNeighbors(n int, exclude Server) []Server {
	candidates := t.aliveExcluding(exclude)
	if len(candidates) == 0 {
		return nil
	}
	if n > len(candidates) {
		n = len(candidates)
	}

	picked := make(map[Server]struct{}, n)
	out := make([]Server, 0, n)
	collisions := 0
	for len(out) < n {
		s := candidates[rand.IntN(len(candidates))]
		if _, already := picked[s]; already {
			collisions++
			if collisions > maxNeighborCollisions {
				break
			}
			continue
		}
		picked[s] = struct{}{}
		out = append(out, s)
		collisions = 0
	}
	return out
}

func (t *Tables) aliveExcluding(exclude Server) []Server {
	t.aliveMu.RLock()
	defer t.aliveMu.RUnlock()
	out := make([]Server, 0, len(t.alive))
	for s := range t.alive {
		if s.Equal(exclude) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// MergeAlive folds one alive record learned from a peer's report into the
// tables. Self-reports are ignored (a server already knows it's alive). If
// the server was suspected, a strictly newer incoming record clears the
// suspicion and promotes it to alive; otherwise, the record is only
// inserted if the server wasn't already known alive — a report never
// overwrites a fresher locally-held alive record, matching the original's
// set-insert-of-a-duplicate-key-is-a-no-op semantics.
func (t *Tables) MergeAlive(rec Record, self Server) {
	if rec.Server.Equal(self) {
		return
	}

	t.aliveMu.Lock()
	defer t.aliveMu.Unlock()

	t.suspectedMu.Lock()
	susRec, wasSuspected := t.suspected[rec.Server]
	if wasSuspected && susRec.Timestamp.Before(rec.Timestamp) {
		delete(t.suspected, rec.Server)
	}
	t.suspectedMu.Unlock()

	if wasSuspected && susRec.Timestamp.Before(rec.Timestamp) {
		rec.DidGossip = false
		t.alive[rec.Server] = rec
		return
	}

	if !wasSuspected {
		if _, exists := t.alive[rec.Server]; !exists {
			rec.DidGossip = false
			t.alive[rec.Server] = rec
		}
	}
}

// MergeSuspected folds one suspected record learned from a peer's report
// into the tables. It returns true if the record names the local server
// itself — reports of our own death, which the caller should respond to by
// pinging the reporter directly, not by suspecting ourselves.
//
// A server already suspected locally is left alone (we already know).
// Otherwise, if it was believed alive with a staler timestamp than this
// report, it's moved to suspected; if it wasn't known at all, it's added
// as a new suspect. An alive record newer than the incoming report wins
// and the suspicion is dropped, since we have fresher good news.
func (t *Tables) MergeSuspected(rec Record, self Server, now time.Time) (isSelf bool) {
	if rec.Server.Equal(self) {
		return true
	}

	t.suspectedMu.RLock()
	_, alreadySuspected := t.suspected[rec.Server]
	t.suspectedMu.RUnlock()
	if alreadySuspected {
		return false
	}

	incomingTimestamp := rec.Timestamp

	t.aliveMu.Lock()
	aliveRec, wasAlive := t.alive[rec.Server]
	newsIsFresher := wasAlive && aliveRec.Timestamp.Before(incomingTimestamp)
	if wasAlive && !newsIsFresher {
		t.aliveMu.Unlock()
		return false
	}
	if newsIsFresher {
		delete(t.alive, rec.Server)
	}
	t.aliveMu.Unlock()

	rec.Timestamp = now
	rec.DidGossip = false

	t.suspectedMu.Lock()
	t.suspected[rec.Server] = rec
	t.suspectedMu.Unlock()
	return false
}

// DrainPendingAlive returns every alive record that hasn't yet been
// included in an outgoing report, and marks them gossiped so the next
// report round doesn't resend them. Mirrors PrepareReport's
// "!item->didgossip()" filter in the original: a report only carries news,
// not the full membership list, every round.
func (t *Tables) DrainPendingAlive() []Record {
	t.aliveMu.Lock()
	defer t.aliveMu.Unlock()

	out := make([]Record, 0, len(t.alive))
	for s, rec := range t.alive {
		if rec.DidGossip {
			continue
		}
		out = append(out, rec)
		rec.DidGossip = true
		t.alive[s] = rec
	}
	return out
}

// DrainPendingSuspected is DrainPendingAlive's counterpart for the
// suspected table.
func (t *Tables) DrainPendingSuspected() []Record {
	t.suspectedMu.Lock()
	defer t.suspectedMu.Unlock()

	out := make([]Record, 0, len(t.suspected))
	for s, rec := range t.suspected {
		if rec.DidGossip {
			continue
		}
		out = append(out, rec)
		rec.DidGossip = true
		t.suspected[s] = rec
	}
	return out
}

// EvictExpired removes every suspected record whose Timestamp is older
// than gracePeriod (measured against now) and returns the evicted servers,
// presumed dead. Matches the detector's garbage-collection sweep: a
// suspected server that is never cleared by a subsequent MarkAlive is
// eventually evicted rather than suspected forever.
func (t *Tables) EvictExpired(gracePeriod time.Duration, now time.Time) []Server {
	cutoff := now.Add(-gracePeriod)

	t.suspectedMu.Lock()
	defer t.suspectedMu.Unlock()

	var evicted []Server
	for s, rec := range t.suspected {
		if rec.Timestamp.Before(cutoff) {
			delete(t.suspected, s)
			evicted = append(evicted, s)
		}
	}
	return evicted
}
