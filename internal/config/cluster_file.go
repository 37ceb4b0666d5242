package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ClusterFile describes the initial shape of a ringkv cluster: how many
// buckets the ring starts with, and which peers a node should gossip with
// on startup. It exists purely to avoid hand-typing dozens of env vars
// when bootstrapping a multi-node cluster by hand or in a test harness —
// every field it carries has an equivalent, lower-precedence env var.
type ClusterFile struct {
	// NumBuckets is the initial number of ring buckets. Falls back to
	// NUM_BUCKETS / DefaultNumBuckets if zero.
	NumBuckets int `yaml:"num_buckets"`

	// PartitionsPerBucket is how many ring points each bucket owns. Falls
	// back to PARTITIONS_PER_BUCKET / DefaultPartitionsPerBucket if zero.
	PartitionsPerBucket int `yaml:"partitions_per_bucket"`

	// SeedPeers lists gossip neighbors a node should mark alive at
	// startup, before any gossip traffic has arrived.
	SeedPeers []SeedPeer `yaml:"seed_peers"`
}

// LoadClusterFile reads and parses a cluster bootstrap file from path. An
// empty path is not an error — it means no cluster file was given, and
// callers should fall back entirely to env vars and defaults.
func LoadClusterFile(path string) (*ClusterFile, error) {
	if path == "" {
		return &ClusterFile{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read cluster file %q: %w", path, err)
	}

	var cf ClusterFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("config: parse cluster file %q: %w", path, err)
	}
	return &cf, nil
}

// NumBucketsOrDefault returns the cluster file's NumBuckets if set,
// otherwise falls back to the NUM_BUCKETS env var, otherwise
// DefaultNumBuckets.
func (cf *ClusterFile) NumBucketsOrDefault() int {
	if cf != nil && cf.NumBuckets > 0 {
		return cf.NumBuckets
	}
	return GetenvInt("NUM_BUCKETS", DefaultNumBuckets)
}

// PartitionsPerBucketOrDefault returns the cluster file's
// PartitionsPerBucket if set, otherwise falls back to the
// PARTITIONS_PER_BUCKET env var, otherwise DefaultPartitionsPerBucket.
func (cf *ClusterFile) PartitionsPerBucketOrDefault() int {
	if cf != nil && cf.PartitionsPerBucket > 0 {
		return cf.PartitionsPerBucket
	}
	return GetenvInt("PARTITIONS_PER_BUCKET", DefaultPartitionsPerBucket)
}
