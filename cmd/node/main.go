// Package main implements the ringkv node service, which hosts a slice of
// the cluster's key-value data and participates in the SWIM-style gossip
// failure detector alongside its peers.
//
// The node is a worker in the ringkv distributed system, responsible for:
//   - Serving the ring buckets it's been told to own
//   - Executing data operations (GET, PUT, DELETE) routed to it by the
//     coordinator
//   - Gossiping with its peers and maintaining its own membership view
//   - Registering with the coordinator
//   - Answering status API queries about its gossip state
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                Node                      │
//	├─────────────────────────────────────────┤
//	│  HTTP API (NODE_LISTEN):                │
//	│    /shard/*      - Bucket operations    │
//	│    /control      - Control messages     │
//	│    /info         - Node information     │
//	│    /api/v1/*     - Status API           │
//	│    /metrics      - Prometheus metrics   │
//	├─────────────────────────────────────────┤
//	│  Gossip (GOSSIP_HOST:GOSSIP_PORT):      │
//	│    raw TCP, length-prefixed envelopes   │
//	├─────────────────────────────────────────┤
//	│  Components:                             │
//	│    kvstore.Store     - Owned bucket data │
//	│    gossip.Server     - Answers gossip    │
//	│    detector.Detector - Drives gossip     │
//	└─────────────────────────────────────────┘
//
// Configuration (env, with an optional -cluster-file YAML overlay for the
// initial ring layout and seed peers — see internal/config):
//   - NODE_ID: Unique node identifier (required)
//   - NODE_LISTEN: HTTP listen address (default: ":8081")
//   - NODE_ADDR: Public HTTP address for the coordinator (default: "http://127.0.0.1:8081")
//   - COORDINATOR_ADDR: Coordinator URL (required)
//   - GOSSIP_HOST: Gossip-reachable hostname (default: "127.0.0.1")
//   - GOSSIP_PORT: Gossip TCP port (default: 7946)
//   - SEED_PEERS: Comma-separated host:port list of neighbors to gossip with at startup
//   - NUM_BUCKETS, PARTITIONS_PER_BUCKET: Ring shape (must match the coordinator's)
//   - UPDATE_ROUND_INTERVAL, GRACE_PERIOD, PING_TIMEOUT, NUM_REPORTS, NUM_FORWARDS: detector tuning
//
// Example usage:
//
//	NODE_ID=node-1 \
//	NODE_LISTEN=:8081 \
//	NODE_ADDR=http://localhost:8081 \
//	COORDINATOR_ADDR=http://localhost:8080 \
//	GOSSIP_PORT=7946 \
//	./node
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dreamware/ringkv/internal/cluster"
	"github.com/dreamware/ringkv/internal/config"
	"github.com/dreamware/ringkv/internal/detector"
	"github.com/dreamware/ringkv/internal/gossip"
	"github.com/dreamware/ringkv/internal/kvstore"
	"github.com/dreamware/ringkv/internal/membership"
	"github.com/dreamware/ringkv/internal/ring"
	"github.com/dreamware/ringkv/internal/statusapi"
)

// logFatal is a variable to allow mocking log.Fatal in tests. This
// indirection lets test code intercept fatal errors without terminating the
// test process.
var logFatal = log.Fatalf

// getenv and mustGetenv delegate to internal/config so every binary shares
// one implementation of environment-variable configuration.
func getenv(key, def string) string { return config.Getenv(key, def) }

func mustGetenv(key string) string {
	return config.MustGetenv(key, logFatal)
}

// Node represents a storage node in the distributed cluster: it owns a
// kvstore.Store routing through the cluster's shared ring shape, and
// answers bucket-scoped data requests the coordinator forwards to it.
//
// Bucket ownership:
//   - Buckets are added lazily, the first time a request for them arrives
//     (the coordinator doesn't yet push ownership changes to nodes — see
//     cmd/coordinator's handleShardAssign doc comment)
//   - Once owned, a bucket stays owned until the node restarts
//   - Store itself is safe for concurrent access
type Node struct {
	ID    string
	Store *kvstore.Store
}

// NewNode creates a new node instance routing through view, with no
// buckets owned yet.
func NewNode(id string, view *ring.View) *Node {
	return &Node{ID: id, Store: kvstore.NewStore(view)}
}

// main initializes and runs the node service: it builds the ring view
// shared with the coordinator, starts gossiping with its peers, registers
// with the coordinator, and serves data-plane and status API requests
// until shutdown.
//
// Exit codes:
//   - 0: Normal shutdown via signal
//   - 1: Missing required configuration, or a component failed to start
func main() {
	config.LoadDotEnv()

	clusterFile := flag.String("cluster-file", "", "optional YAML file describing the initial ring layout and seed peers")
	flag.Parse()

	cf, err := config.LoadClusterFile(*clusterFile)
	if err != nil {
		logFatal("%v", err)
	}

	nodeID := mustGetenv("NODE_ID")
	listen := getenv("NODE_LISTEN", ":"+strconv.Itoa(config.DefaultPort))
	public := getenv("NODE_ADDR", "http://127.0.0.1:8081")
	coord := mustGetenv("COORDINATOR_ADDR")
	gossipHost := getenv("GOSSIP_HOST", "127.0.0.1")
	gossipPort := config.GetenvInt("GOSSIP_PORT", config.DefaultGossipPort)

	// The ring shape must match the coordinator's exactly: bucket names
	// are derived purely from (numBuckets, partitionsPerBucket), so two
	// independently-built views of the same shape resolve every key to
	// the same bucket name without a wire protocol to agree on it.
	numBuckets := cf.NumBucketsOrDefault()
	partitionsPerBucket := cf.PartitionsPerBucketOrDefault()
	view, err := ring.MakeBalancedView(numBuckets, partitionsPerBucket)
	if err != nil {
		logFatal("failed to build ring view: %v", err)
	}

	node := NewNode(nodeID, view)
	log.Printf("node[%s] initialized (%d buckets in ring, owned lazily on first request)", nodeID, numBuckets)

	self := membership.Server{Hostname: gossipHost, Port: gossipPort}
	tables := membership.NewTables()
	gossipServer := gossip.NewServer(self, tables)

	dc := config.DetectorConfigFromEnv()
	det := detector.New(gossipServer, detector.Config{
		UpdateRoundInterval: dc.UpdateRoundInterval,
		GracePeriod:         dc.GracePeriod,
		PingTimeout:         dc.PingTimeout,
		NumReports:          dc.NumReports,
		NumForwards:         dc.NumForwards,
	})

	for _, peer := range cf.SeedPeers {
		det.AddNeighbor(membership.Server{Hostname: peer.Hostname, Port: peer.Port})
	}
	for _, peer := range parseSeedPeers(os.Getenv("SEED_PEERS")) {
		det.AddNeighbor(peer)
	}

	if err := gossipServer.Start(); err != nil {
		logFatal("failed to start gossip server: %v", err)
	}
	if err := det.Start(); err != nil {
		logFatal("failed to start failure detector: %v", err)
	}

	statusMux := statusapi.NewHandler(gossipServer).Mux()

	mux := http.NewServeMux()
	mux.Handle("/api/v1/report", statusMux)
	mux.Handle("/api/v1/server", statusMux)
	mux.Handle("/metrics", statusMux)
	mux.HandleFunc("/control", handleControl)
	mux.HandleFunc("/shard/", func(w http.ResponseWriter, r *http.Request) {
		handleShardRequest(node, w, r)
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		handleNodeInfo(node, w, r)
	})

	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second, // Prevent slowloris attacks
	}

	go func() {
		log.Printf("node[%s] listening on %s (public %s), gossiping on %s", nodeID, listen, public, self.String())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("listen: %v", err)
		}
	}()

	ctx := context.Background()
	register(ctx, coord, nodeID, public)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := det.Stop(shutdownCtx); err != nil {
		log.Printf("detector shutdown error: %v", err)
	}
	if err := gossipServer.Stop(shutdownCtx); err != nil {
		log.Printf("gossip server shutdown error: %v", err)
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("node stopped")
}

// parseSeedPeers parses a comma-separated "host:port,host:port" list from
// the SEED_PEERS env var. Malformed entries are skipped with a warning
// rather than treated as fatal — a typo in one seed shouldn't prevent the
// node from starting and discovering the rest of the cluster organically.
func parseSeedPeers(raw string) []membership.Server {
	if raw == "" {
		return nil
	}

	var out []membership.Server
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		host, portStr, err := splitHostPort(entry)
		if err != nil {
			log.Printf("SEED_PEERS: skipping invalid entry %q: %v", entry, err)
			continue
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			log.Printf("SEED_PEERS: skipping invalid entry %q: %v", entry, err)
			continue
		}
		out = append(out, membership.Server{Hostname: host, Port: port})
	}
	return out
}

// splitHostPort splits "host:port" without net.SplitHostPort's IPv6-bracket
// handling, which SEED_PEERS entries never need.
func splitHostPort(s string) (host, port string, err error) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return "", "", strconv.ErrSyntax
	}
	return s[:idx], s[idx+1:], nil
}

// register attempts to register the node with the coordinator, retrying on
// failure to handle coordinator startup delays or temporary network issues.
//
// Retry strategy:
//   - 10 attempts maximum
//   - 400ms delay between attempts
//   - Fatal error if all attempts fail
func register(ctx context.Context, coord, id, addr string) {
	body := cluster.RegisterRequest{Node: cluster.NodeInfo{ID: id, Addr: addr}}
	var lastErr error

	for i := 0; i < 10; i++ {
		lastErr = cluster.PostJSON(ctx, coord+"/register", body, nil)
		if lastErr == nil {
			log.Printf("registered with coordinator @ %s", coord)
			return
		}
		log.Printf("register retry %d: %v", i+1, lastErr)
		time.Sleep(400 * time.Millisecond)
	}

	logFatal("failed to register with coordinator: %v", lastErr)
}

// handleControl processes control messages from the coordinator for
// cluster management operations like configuration updates or maintenance
// commands.
//
// Endpoint: POST /control
//
// Response:
//   - 204 No Content: Message received
//   - 400 Bad Request: Failed to read body
func handleControl(w http.ResponseWriter, r *http.Request) {
	var raw bytes.Buffer
	if _, err := raw.ReadFrom(r.Body); err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	log.Printf("control payload: %s", raw.Bytes())
	w.WriteHeader(http.StatusNoContent)
}

// handleShardRequest routes bucket-specific storage requests, adopting
// ownership of a bucket on-demand the first time a request for it arrives
// and delegating the actual operation to the node's kvstore.Store.
//
// Endpoint: /shard/{bucket}/store/{key}
//
// On-demand bucket ownership:
//   - A bucket is added to the Store the first time any request names it
//   - This stands in for an explicit ownership-push protocol from the
//     coordinator, which doesn't yet notify nodes of assignments (see
//     cmd/coordinator's handleShardAssign)
//   - The Store still resolves each key to a bucket by its own hash; a
//     key whose hash bucket differs from the URL's bucket, or is not yet
//     owned, is rejected (503 on PUT, 404 on GET)
//
// Supported operations:
//   - GET/PUT/DELETE on /shard/{bucket}/store/{key}
//   - GET on /shard/{bucket}/store (list keys)
//   - GET on /shard/{bucket}/stats (bucket statistics)
func handleShardRequest(node *Node, w http.ResponseWriter, r *http.Request) {
	pathWithoutPrefix := strings.TrimPrefix(r.URL.Path, "/shard/")

	firstSlash := strings.Index(pathWithoutPrefix, "/")
	if firstSlash == -1 {
		http.Error(w, "invalid path format", http.StatusBadRequest)
		return
	}

	bucket := pathWithoutPrefix[:firstSlash]
	remainingPath := pathWithoutPrefix[firstSlash+1:]
	if bucket == "" {
		http.Error(w, "invalid bucket name", http.StatusBadRequest)
		return
	}

	node.Store.AddBucket(bucket)

	switch {
	case remainingPath == "store":
		if r.Method == http.MethodGet {
			handleListKeys(node, bucket, w, r)
			return
		}
	case strings.HasPrefix(remainingPath, "store/"):
		key := strings.TrimPrefix(remainingPath, "store/")
		switch r.Method {
		case http.MethodGet:
			handleGet(node, key, w, r)
		case http.MethodPut:
			handlePut(node, key, w, r)
		case http.MethodDelete:
			handleDelete(node, key, w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	case remainingPath == "stats":
		if r.Method == http.MethodGet {
			handleShardStats(node, bucket, w, r)
			return
		}
	}

	http.Error(w, "not found", http.StatusBadRequest)
}

// handleGet retrieves a value from the node's store, returning the stored
// data or 404 if the key isn't present (or isn't owned by this node).
//
// Endpoint: GET /shard/{bucket}/store/{key}
func handleGet(node *Node, key string, w http.ResponseWriter, _ *http.Request) {
	value, ok := node.Store.Get(key)
	if !ok {
		http.Error(w, "key not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(value); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// handlePut stores a value in the node's store, creating or updating the
// key-value pair.
//
// Endpoint: PUT /shard/{bucket}/store/{key}
//
// Response:
//   - 204 No Content: Value stored successfully
//   - 400 Bad Request: Failed to read request body
//   - 503 Service Unavailable: This node doesn't own the bucket the key hashes to
func handlePut(node *Node, key string, w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r.Body); err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if ok := node.Store.Put(key, buf.Bytes()); !ok {
		http.Error(w, "key does not belong to a bucket this node owns", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDelete removes a key-value pair from the node's store.
//
// Endpoint: DELETE /shard/{bucket}/store/{key}
//
// Delete behavior:
//   - Idempotent: deleting a non-existent key still returns 204
func handleDelete(node *Node, key string, w http.ResponseWriter, _ *http.Request) {
	node.Store.Remove(key)
	w.WriteHeader(http.StatusNoContent)
}

// handleListKeys returns all keys stored in the named bucket.
//
// Endpoint: GET /shard/{bucket}/store
//
// Response body:
//
//	{"keys": ["user:1", "user:2"], "count": 2}
func handleListKeys(node *Node, bucket string, w http.ResponseWriter, _ *http.Request) {
	keys, _ := node.Store.ListBucketKeys(bucket)

	response := struct {
		Keys  []string `json:"keys"`
		Count int      `json:"count"`
	}{
		Keys:  keys,
		Count: len(keys),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// handleShardStats returns operational statistics for the named bucket.
//
// Endpoint: GET /shard/{bucket}/stats
//
// Response body:
//
//	{"bucket": "bucket-0", "keys": 100, "bytes": 10240}
func handleShardStats(node *Node, bucket string, w http.ResponseWriter, _ *http.Request) {
	stats, _ := node.Store.BucketStatsFor(bucket)

	response := struct {
		Bucket string `json:"bucket"`
		Keys   int    `json:"keys"`
		Bytes  int    `json:"bytes"`
	}{
		Bucket: bucket,
		Keys:   stats.KeyCount,
		Bytes:  stats.ByteSize,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// handleNodeInfo returns comprehensive information about the node and all
// its owned buckets for monitoring and debugging purposes.
//
// Endpoint: GET /info
//
// Response body:
//
//	{
//	  "node_id": "node-1",
//	  "bucket_count": 2,
//	  "buckets": [
//	    {"Name": "bucket-0", "KeyCount": 150, "ByteSize": 15360},
//	    {"Name": "bucket-1", "KeyCount": 200, "ByteSize": 20480}
//	  ]
//	}
func handleNodeInfo(node *Node, w http.ResponseWriter, _ *http.Request) {
	stats := node.Store.Stats()

	response := struct {
		NodeID      string                `json:"node_id"`
		Buckets     []kvstore.BucketStats `json:"buckets"`
		BucketCount int                   `json:"bucket_count"`
	}{
		NodeID:      node.ID,
		Buckets:     stats.Buckets,
		BucketCount: len(stats.Buckets),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}
