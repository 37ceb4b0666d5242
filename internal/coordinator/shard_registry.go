// Package coordinator implements the orchestration layer for ringkv's distributed storage system.
// See doc.go for complete package documentation.
package coordinator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dreamware/ringkv/internal/hashutil"
	"github.com/dreamware/ringkv/internal/ring"
)

// BucketAssignment represents the assignment of a ring bucket to a specific
// node in the cluster, tracking ownership for data distribution and fault
// tolerance.
//
// The registry keeps exactly one assignment per bucket. IsPrimary is
// recorded as given; assigning a bucket again, as primary or not, replaces
// its previous assignment. Assignments can be changed for rebalancing or
// failure recovery.
//
// Thread Safety:
// BucketAssignment structs are immutable once created. The registry returns
// copies to prevent external modification.
//
// Example:
//
//	assignment := &BucketAssignment{
//	    Bucket:    "bucket-0",
//	    NodeID:    "node-1",
//	    IsPrimary: true,
//	}
type BucketAssignment struct {
	// NodeID identifies the node that owns this bucket.
	// Must match a registered node's ID in the cluster.
	NodeID string

	// IsPrimary indicates whether this is the primary or replica assignment.
	// Primary: Handles writes and strongly consistent reads
	// Replica: Handles eventually consistent reads, provides fault tolerance
	IsPrimary bool

	// Bucket is the ring bucket name this assignment covers. Must match a
	// bucket name present in the registry's ring.View.
	Bucket string
}

// ShardRegistry manages bucket-to-node assignments in the cluster, serving as
// the authoritative source for data placement decisions and enabling
// efficient request routing based on the cluster's consistent-hash ring.
//
// The registry itself does not decide which bucket a key belongs to — that
// question is delegated entirely to the ring.View it wraps. ShardRegistry
// only answers the second half of the routing question: given a bucket (or
// a key that resolves to one), which node currently serves it.
//
// Architecture:
//
//	┌───────────────────────────────────────┐
//	│            ShardRegistry               │
//	├───────────────────────────────────────┤
//	│  view: *ring.View (bucket membership)  │
//	│  assignments: map[bucket]→node         │
//	│  mu: RWMutex for thread safety         │
//	├───────────────────────────────────────┤
//	│  Key → view.Find → Bucket → Node       │
//	│  "user:123" → bucket-5 → "node-2"      │
//	└───────────────────────────────────────┘
//
// Concurrency Model:
//   - Read operations use RLock for parallel access
//   - Write operations use Lock for exclusive access
//   - All returned data is copied to prevent races
//   - No locks held during external calls
type ShardRegistry struct {
	// view is the ring the registry routes keys through. The registry
	// never mutates bucket membership itself — callers add/remove buckets
	// on view directly and then update assignments to match.
	view *ring.View

	// assignments maps bucket names to their current node assignment. A
	// bucket may be unassigned (not in map) during transitions.
	assignments map[string]*BucketAssignment

	mu sync.RWMutex
}

// NewShardRegistry creates a new registry routing through view. The caller
// owns the view's bucket membership; the registry only tracks which node
// serves each bucket.
func NewShardRegistry(view *ring.View) *ShardRegistry {
	return &ShardRegistry{
		view:        view,
		assignments: make(map[string]*BucketAssignment),
	}
}

// AssignShard assigns bucket to a node, establishing or updating the
// ownership relationship for data placement and request routing. bucket
// must already exist in the registry's ring.View.
//
// Use cases:
//   - Initial bucket distribution during cluster setup
//   - Rebalancing when nodes join/leave
//   - Promoting replicas to primary during failover
func (r *ShardRegistry) AssignShard(bucket string, nodeID string, isPrimary bool) error {
	if nodeID == "" {
		return errors.New("node ID cannot be empty")
	}
	if !r.bucketExists(bucket) {
		return fmt.Errorf("bucket %q is not present in the ring view", bucket)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.assignments[bucket] = &BucketAssignment{
		Bucket:    bucket,
		NodeID:    nodeID,
		IsPrimary: isPrimary,
	}
	return nil
}

func (r *ShardRegistry) bucketExists(name string) bool {
	for _, b := range r.view.Buckets() {
		if b.Name() == name {
			return true
		}
	}
	return false
}

// RemoveShard removes bucket's assignment, effectively making the bucket
// unassigned and unavailable for operations until reassigned. It does not
// touch the underlying ring.View — callers wanting to retire a bucket
// entirely should also call view.RemoveBucket.
func (r *ShardRegistry) RemoveShard(bucket string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.assignments, bucket)
	return nil
}

// GetAssignment returns the current assignment for bucket, enabling request
// routing and bucket location queries. Returns nil if bucket is unassigned.
func (r *ShardRegistry) GetAssignment(bucket string) *BucketAssignment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assignment := r.assignments[bucket]
	if assignment == nil {
		return nil
	}

	cp := *assignment
	return &cp
}

// GetAllAssignments returns all current bucket assignments in the cluster,
// providing a complete view of data distribution for monitoring and
// management. Assignments are returned in no particular order.
func (r *ShardRegistry) GetAllAssignments() []*BucketAssignment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assignments := make([]*BucketAssignment, 0, len(r.assignments))
	for _, assignment := range r.assignments {
		cp := *assignment
		assignments = append(assignments, &cp)
	}
	return assignments
}

// GetBucketForKey determines which bucket owns key by asking the registry's
// ring.View, enabling deterministic data placement across the cluster.
func (r *ShardRegistry) GetBucketForKey(key string) (string, error) {
	b, err := r.view.Find(hashutil.HashString(key))
	if err != nil {
		return "", err
	}
	return b.Name(), nil
}

// GetNodeForKey finds the node that owns the bucket for a given key,
// providing direct routing information for client requests.
//
// Routing process:
//   - Key → view.Find → Bucket → Node
//   - Example: "user:123" → bucket-5 → "node-2"
func (r *ShardRegistry) GetNodeForKey(key string) (string, error) {
	bucket, err := r.GetBucketForKey(key)
	if err != nil {
		return "", err
	}

	r.mu.RLock()
	assignment := r.assignments[bucket]
	r.mu.RUnlock()

	if assignment == nil {
		return "", fmt.Errorf("bucket %q is not assigned to any node", bucket)
	}
	return assignment.NodeID, nil
}

// GetNodeShards returns all bucket names assigned to a specific node, useful
// for node-level operations and monitoring (e.g. which buckets a node must
// hand off before decommissioning).
func (r *ShardRegistry) GetNodeShards(nodeID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var buckets []string
	for bucket, assignment := range r.assignments {
		if assignment.NodeID == nodeID {
			buckets = append(buckets, bucket)
		}
	}
	return buckets
}

// NumShards returns the number of buckets currently present in the
// registry's ring.View.
func (r *ShardRegistry) NumShards() int {
	return r.view.BucketCount()
}

// RebalanceShards redistributes every bucket in the registry's ring.View
// evenly across nodes using a simple round-robin strategy.
//
// Current limitations:
//   - Simple round-robin (doesn't consider actual load)
//   - No data migration coordination — callers must still move data via
//     kvstore.Store.Rebalance once assignments change
//   - All assignments are primary (no replicas yet)
func (r *ShardRegistry) RebalanceShards(nodes []string) error {
	if len(nodes) == 0 {
		return errors.New("cannot rebalance with no nodes")
	}

	buckets := r.view.Buckets()

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, b := range buckets {
		nodeID := nodes[i%len(nodes)]
		r.assignments[b.Name()] = &BucketAssignment{
			Bucket:    b.Name(),
			NodeID:    nodeID,
			IsPrimary: true,
		}
	}
	return nil
}
