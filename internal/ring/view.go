package ring

import (
	"errors"
	"sort"
	"strconv"
	"sync"
)

// ErrInvalidArgument is returned for nil buckets and invalid View
// constructor arguments.
var ErrInvalidArgument = errors.New("ring: invalid argument")

// ErrEmptyView is returned by Find when the View owns no buckets.
var ErrEmptyView = errors.New("ring: empty view")

// ErrInvalidHash is returned by Find when h falls outside [0, 1+epsilon].
var ErrInvalidHash = errors.New("ring: hash out of range")

// ErrBucketNotFound is returned by RemoveBucket when the named bucket
// isn't present.
var ErrBucketNotFound = errors.New("ring: bucket not found")

// ringEntry pairs a partition point with the bucket that owns it. entries
// are kept sorted ascending by point.
type ringEntry struct {
	bucket *Bucket
	point  float64
}

// View is the union of all contained buckets' partition points, with a
// lookup structure answering "which bucket owns hash h?" buckets and the
// point index are independently locked (bucketsMu guards the name->bucket
// map; ringMu guards the sorted point index) so that concurrent Find calls
// never block on bucket-set bookkeeping. When both locks are needed (as in
// AddBucket/RemoveBucket) bucketsMu is always acquired first, per the
// package's lock-ordering rule.
type View struct {
	bucketsMu sync.RWMutex
	buckets   map[string]*Bucket

	ringMu sync.RWMutex
	ring   []ringEntry
}

// NewView returns an empty View.
func NewView() *View {
	return &View{buckets: make(map[string]*Bucket)}
}

// AddBucket adds b to the View, updating both the bucket set and the ring
// index atomically from a reader's perspective. A nil bucket is rejected
// with ErrInvalidArgument.
func (v *View) AddBucket(b *Bucket) error {
	if b == nil {
		return ErrInvalidArgument
	}

	v.bucketsMu.Lock()
	defer v.bucketsMu.Unlock()
	v.buckets[b.Name()] = b
	v.rebuildRingLocked()
	return nil
}

// RemoveBucket removes the named bucket from the View, updating the ring
// index. Returns ErrBucketNotFound if no such bucket exists.
func (v *View) RemoveBucket(name string) error {
	v.bucketsMu.Lock()
	defer v.bucketsMu.Unlock()
	if _, ok := v.buckets[name]; !ok {
		return ErrBucketNotFound
	}
	delete(v.buckets, name)
	v.rebuildRingLocked()
	return nil
}

// rebuildRingLocked recomputes the sorted point index from the current
// bucket set. Callers must hold bucketsMu.
func (v *View) rebuildRingLocked() {
	entries := make([]ringEntry, 0, len(v.buckets)*4)
	for _, b := range v.buckets {
		for _, p := range b.Points() {
			entries = append(entries, ringEntry{bucket: b, point: p})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].point < entries[j].point })

	v.ringMu.Lock()
	v.ring = entries
	v.ringMu.Unlock()
}

// Find returns the bucket owning hash h: the first ring entry whose point is
// strictly greater than h, wrapping to the lowest point if h is greater than
// every point on the ring.
func (v *View) Find(h float64) (*Bucket, error) {
	if h < 0 || h > 1+epsilonRange {
		return nil, ErrInvalidHash
	}

	v.ringMu.RLock()
	defer v.ringMu.RUnlock()

	if len(v.ring) == 0 {
		return nil, ErrEmptyView
	}

	idx := sort.Search(len(v.ring), func(i int) bool { return v.ring[i].point > h })
	if idx == len(v.ring) {
		idx = 0
	}
	return v.ring[idx].bucket, nil
}

// epsilonRange widens the valid input range for Find slightly above 1 to
// tolerate float accumulation when h is computed as 1/(N*P)*k for large k.
const epsilonRange = 1e-5

// Buckets returns the View's buckets, ordered by name.
func (v *View) Buckets() []*Bucket {
	v.bucketsMu.RLock()
	defer v.bucketsMu.RUnlock()

	names := make([]string, 0, len(v.buckets))
	for name := range v.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Bucket, len(names))
	for i, name := range names {
		out[i] = v.buckets[name]
	}
	return out
}

// BucketCount returns the number of buckets currently in the View.
func (v *View) BucketCount() int {
	v.bucketsMu.RLock()
	defer v.bucketsMu.RUnlock()
	return len(v.buckets)
}

// RenameBuckets renames the first len(names) buckets, in name-sorted order,
// to the given names, then rebuilds the ring index so Find reflects the new
// names immediately.
func (v *View) RenameBuckets(names []string) error {
	v.bucketsMu.Lock()
	defer v.bucketsMu.Unlock()

	ordered := make([]string, 0, len(v.buckets))
	for name := range v.buckets {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	if len(names) > len(ordered) {
		return ErrInvalidArgument
	}

	renamed := make(map[string]*Bucket, len(v.buckets))
	for i, oldName := range ordered {
		b := v.buckets[oldName]
		if i < len(names) {
			b.SetName(names[i])
		}
		renamed[b.Name()] = b
	}
	v.buckets = renamed
	v.rebuildRingLocked()
	return nil
}

// MakeBalancedView builds a View with numBuckets buckets, each owning
// partitionsPerBucket partition points, interleaved uniformly around the
// ring: with delta = 1/(numBuckets*partitionsPerBucket), bucket i owns
// points at i*delta + j*numBuckets*delta for j in [0, partitionsPerBucket).
// Interleaving (rather than clustering each bucket's points together)
// spreads load evenly for hashes drawn from a uniform distribution.
//
// Bucket names are "bucket-0".."bucket-{numBuckets-1}".
func MakeBalancedView(numBuckets, partitionsPerBucket int) (*View, error) {
	if numBuckets <= 0 || partitionsPerBucket <= 0 {
		return nil, ErrInvalidArgument
	}

	delta := 1.0 / float64(numBuckets*partitionsPerBucket)
	v := NewView()
	for i := 0; i < numBuckets; i++ {
		points := make([]float64, partitionsPerBucket)
		for j := 0; j < partitionsPerBucket; j++ {
			points[j] = float64(i)*delta + float64(j)*float64(numBuckets)*delta
		}
		name := bucketName(i)
		if err := v.AddBucket(NewBucket(name, points)); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func bucketName(i int) string {
	return "bucket-" + strconv.Itoa(i)
}
