// Package ring implements the consistent-hash ring used for data placement:
// buckets own virtual partition points on [0, 1), and a View answers "which
// bucket owns hash h?" Bucket names are independent of the host:port
// identities the gossip failure detector uses (see internal/membership).
package ring

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dreamware/ringkv/internal/hashutil"
)

// ErrOutOfRange is returned when a partition-point index is outside the
// bucket's current point count.
var ErrOutOfRange = fmt.Errorf("ring: partition index out of range")

// Bucket is a named collection of partition points ("virtual nodes") that
// together make up one node's share of the key space. Points stay sorted
// ascending at all times; callers never see an unsorted slice.
type Bucket struct {
	mu     sync.RWMutex
	name   string
	points []float64
}

// NewBucket constructs a Bucket from a name and an initial set of points.
// The points are copied and sorted; duplicates (within hashutil.Tolerance)
// are not removed here since callers of MakeBalancedView never produce
// them, but an explicit AddPoint of a near-duplicate is a caller error we
// don't attempt to silently correct.
func NewBucket(name string, points []float64) *Bucket {
	pts := make([]float64, len(points))
	copy(pts, points)
	sort.Float64s(pts)
	return &Bucket{name: name, points: pts}
}

// Name returns the bucket's current name.
func (b *Bucket) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

// SetName renames the bucket in place. Callers that need the rename
// reflected in a View's ring lookup must go through View.RenameBuckets,
// which re-sorts the View's bucket index afterwards.
func (b *Bucket) SetName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
}

// Points returns a copy of the bucket's sorted partition points.
func (b *Bucket) Points() []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]float64, len(b.points))
	copy(out, b.points)
	return out
}

// Len reports how many partition points the bucket currently owns.
func (b *Bucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.points)
}

// AddPoint inserts a new partition point, keeping points sorted ascending.
func (b *Bucket) AddPoint(p float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := sort.SearchFloat64s(b.points, p)
	b.points = append(b.points, 0)
	copy(b.points[idx+1:], b.points[idx:])
	b.points[idx] = p
}

// RemovePoint deletes the point at the given index. Returns ErrOutOfRange
// if index is outside [0, Len()).
func (b *Bucket) RemovePoint(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.points) {
		return ErrOutOfRange
	}
	b.points = append(b.points[:index], b.points[index+1:]...)
	return nil
}

// PartitionPoint returns the smallest point strictly greater than x. If x is
// greater than or equal to the largest point (or the bucket has no points
// greater than x), it wraps around to (0, points[0]).
//
// Returns ErrOutOfRange if the bucket owns no points at all.
func (b *Bucket) PartitionPoint(x float64) (index int, point float64, err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.points) == 0 {
		return 0, 0, ErrOutOfRange
	}
	idx := sort.Search(len(b.points), func(i int) bool { return b.points[i] > x })
	if idx == len(b.points) {
		return 0, b.points[0], nil
	}
	return idx, b.points[idx], nil
}

// OwnsPoint reports whether p falls on this bucket's ring (within
// hashutil.Tolerance of one of its points). Mostly useful in tests and
// diagnostics; View.Find is the hot-path lookup.
func (b *Bucket) OwnsPoint(p float64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, own := range b.points {
		if hashutil.NearlyEqual(own, p) {
			return true
		}
	}
	return false
}
