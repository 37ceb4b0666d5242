package kvstore

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dreamware/ringkv/internal/applog"
	"github.com/dreamware/ringkv/internal/hashutil"
	"github.com/dreamware/ringkv/internal/ring"
	"github.com/dreamware/ringkv/internal/shard"
)

// BucketStats is a Stats snapshot for one locally-owned bucket.
type BucketStats struct {
	Name     string
	KeyCount int
	ByteSize int
}

// StoreStats summarizes a Store's locally-owned buckets.
type StoreStats struct {
	Buckets    []BucketStats
	TotalKeys  int
	TotalBytes int
}

// Store is the sharded key-value store described by the design: it routes
// every key through a shared ring.View and only stores data for the
// buckets it's been told to own. Put/Get/Remove on a key this node doesn't
// own simply report failure — routing to the right node is a caller
// concern (see cmd/node's HTTP layer), not this package's.
type Store struct {
	view *ring.View

	mu           sync.RWMutex
	ownedBuckets map[string]*shard.Shard

	// TryAllDestinations controls RemoveBucket's behavior when a key's
	// first destination rejects it. false (the default) reproduces the
	// original's documented bug: RemoveBucket gives up on the whole
	// operation the moment one destination doesn't want a key, even if a
	// later destination would have. Set true to try every destination
	// before giving up — the recommended fix.
	TryAllDestinations bool

	logger zerolog.Logger
}

// NewStore returns a Store routing through view, owning no buckets yet.
func NewStore(view *ring.View) *Store {
	return &Store{
		view:         view,
		ownedBuckets: make(map[string]*shard.Shard),
		logger:       applog.WithComponent("kvstore"),
	}
}

// bucketFor resolves the bucket owning key's hash and returns the local
// shard backing it, if this Store owns that bucket.
func (s *Store) bucketFor(key string) (*shard.Shard, bool) {
	b, err := s.view.Find(hashutil.HashString(key))
	if err != nil {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.ownedBuckets[b.Name()]
	return sh, ok
}

// Put stores value under key if this Store owns the bucket key hashes to.
// Reports false ("not ours") otherwise.
func (s *Store) Put(key string, value []byte) bool {
	sh, ok := s.bucketFor(key)
	if !ok {
		opsTotal.WithLabelValues("put", "not_owned").Inc()
		return false
	}
	_ = sh.Put(key, value)
	opsTotal.WithLabelValues("put", "ok").Inc()
	bucketKeys.WithLabelValues(sh.Name).Set(float64(sh.Info().KeyCount))
	return true
}

// Get retrieves the value for key, returning ok=false if this Store
// doesn't own the key or the key isn't present.
func (s *Store) Get(key string) (value []byte, ok bool) {
	sh, owned := s.bucketFor(key)
	if !owned {
		opsTotal.WithLabelValues("get", "not_owned").Inc()
		return nil, false
	}
	v, err := sh.Get(key)
	if err != nil {
		opsTotal.WithLabelValues("get", "miss").Inc()
		return nil, false
	}
	opsTotal.WithLabelValues("get", "ok").Inc()
	return v, true
}

// Remove deletes key, reporting whether an entry actually existed.
func (s *Store) Remove(key string) bool {
	sh, ok := s.bucketFor(key)
	if !ok {
		opsTotal.WithLabelValues("remove", "not_owned").Inc()
		return false
	}
	if !sh.Exists(key) {
		opsTotal.WithLabelValues("remove", "miss").Inc()
		return false
	}
	_ = sh.Delete(key)
	opsTotal.WithLabelValues("remove", "ok").Inc()
	bucketKeys.WithLabelValues(sh.Name).Set(float64(sh.Info().KeyCount))
	return true
}

// AddBucket starts serving bucket name locally. Idempotent: re-adding an
// already-owned bucket is a no-op, and neither case moves any data — the
// caller is responsible for populating the new shard via Rebalance.
func (s *Store) AddBucket(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ownedBuckets[name]; ok {
		return
	}
	s.ownedBuckets[name] = shard.NewShard(name, true)
	bucketKeys.WithLabelValues(name).Set(0)
}

// RemoveBucket evicts bucket b, handing every key it holds off to
// destinations before dropping the bucket. For each key it walks
// destinations in order and stops at the first one that accepts the key
// (Put returns true); if TryAllDestinations is false (the default) and
// the first destination tried rejects a key, RemoveBucket aborts the
// whole operation immediately — without trying the remaining
// destinations for that key, and without erasing anything — reproducing
// the documented upstream quirk. Set TryAllDestinations to try every
// destination per key before giving up.
func (s *Store) RemoveBucket(b *ring.Bucket, destinations []*Store) (bool, error) {
	s.mu.RLock()
	sh, ok := s.ownedBuckets[b.Name()]
	s.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("kvstore: bucket %q not owned", b.Name())
	}

	for _, key := range sh.ListKeys() {
		value, err := sh.Get(key)
		if err != nil {
			continue
		}

		placed := false
		for _, dest := range destinations {
			if dest.Put(key, value) {
				placed = true
				break
			}
			if !s.TryAllDestinations {
				break
			}
		}
		if !placed {
			s.logger.Warn().Str("bucket", b.Name()).Str("key", key).Msg("no destination accepted key; abandoning remove_bucket")
			return false, nil
		}
	}

	s.mu.Lock()
	delete(s.ownedBuckets, b.Name())
	s.mu.Unlock()
	bucketKeys.DeleteLabelValues(b.Name())
	return true, nil
}

// Rebalance walks the bucket named sourceBucket and moves every key whose
// current View.Find no longer resolves to sourceBucket over to dest,
// erasing only the keys that were successfully moved. Returns false
// without erasing anything if dest rejects a key mid-walk.
func (s *Store) Rebalance(sourceBucket string, dest *Store) (bool, error) {
	s.mu.RLock()
	sh, ok := s.ownedBuckets[sourceBucket]
	s.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("kvstore: bucket %q not owned", sourceBucket)
	}

	var toErase []string
	for _, key := range sh.ListKeys() {
		b, err := s.view.Find(hashutil.HashString(key))
		if err != nil {
			return false, err
		}
		if b.Name() == sourceBucket {
			continue
		}

		value, err := sh.Get(key)
		if err != nil {
			continue
		}
		if !dest.Put(key, value) {
			return false, nil
		}
		toErase = append(toErase, key)
	}

	for _, key := range toErase {
		_ = sh.Delete(key)
	}
	return true, nil
}

// Stats returns per-bucket and aggregate counts across every bucket this
// Store currently owns.
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := StoreStats{Buckets: make([]BucketStats, 0, len(s.ownedBuckets))}
	for name, sh := range s.ownedBuckets {
		info := sh.Info()
		out.Buckets = append(out.Buckets, BucketStats{
			Name:     name,
			KeyCount: info.KeyCount,
			ByteSize: info.ByteSize,
		})
		out.TotalKeys += info.KeyCount
		out.TotalBytes += info.ByteSize
	}
	return out
}

// OwnedBuckets reports the names of every bucket this Store currently
// serves.
func (s *Store) OwnedBuckets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.ownedBuckets))
	for name := range s.ownedBuckets {
		names = append(names, name)
	}
	return names
}

// ListBucketKeys returns every key held in the named bucket, for admin and
// debugging endpoints. ok is false if this Store doesn't own that bucket.
func (s *Store) ListBucketKeys(name string) (keys []string, ok bool) {
	s.mu.RLock()
	sh, owned := s.ownedBuckets[name]
	s.mu.RUnlock()
	if !owned {
		return nil, false
	}
	return sh.ListKeys(), true
}

// BucketStatsFor returns the stats for a single owned bucket, for admin
// endpoints that only need one bucket's numbers rather than the whole
// Stats() snapshot. ok is false if this Store doesn't own that bucket.
func (s *Store) BucketStatsFor(name string) (stats BucketStats, ok bool) {
	s.mu.RLock()
	sh, owned := s.ownedBuckets[name]
	s.mu.RUnlock()
	if !owned {
		return BucketStats{}, false
	}
	info := sh.Info()
	return BucketStats{Name: name, KeyCount: info.KeyCount, ByteSize: info.ByteSize}, true
}
