package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dreamware/ringkv/internal/applog"
)

// Default values for every tunable. DefaultPartitionsPerBucket is 3, the
// same partition count cmd/coordinator builds its ring view with.
const (
	DefaultPort                = 8081
	DefaultUpdateRoundInterval = time.Second
	DefaultGracePeriod         = 30 * time.Second
	DefaultPingTimeout         = 25 * time.Millisecond
	DefaultNumReports          = 6
	DefaultNumForwards         = 3
	DefaultPartitionsPerBucket = 3
	DefaultNumBuckets          = 4
	DefaultGossipPort          = 7946
)

// LoadDotEnv loads a .env file from the working directory into the process
// environment, for local development. It is not an error for the file to
// be absent — production deployments set real environment variables and
// never carry a .env file.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		applog.WithComponent("config").Warn().Err(err).Msg("failed to load .env file")
	}
}

// Getenv retrieves an environment variable with a default fallback,
// mirroring the teacher's getenv helper so every binary configures itself
// the same way.
func Getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// MustGetenv retrieves a required environment variable, terminating the
// process via logFatal if it's unset. logFatal is a parameter (rather than
// a direct log.Fatalf call) so callers can inject a non-terminating stub
// in tests, matching cmd/node's existing logFatal indirection.
func MustGetenv(key string, logFatal func(format string, args ...any)) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	logFatal("missing required environment variable %s", key)
	return ""
}

// GetenvInt retrieves an integer environment variable, falling back to def
// if the variable is unset, empty, or not a valid positive integer.
func GetenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// GetenvDuration retrieves a duration environment variable (parsed via
// time.ParseDuration, e.g. "200ms", "30s"), falling back to def if unset
// or invalid.
func GetenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// DetectorConfig mirrors detector.Config's fields so it can be built from
// the environment without internal/config depending on internal/detector.
type DetectorConfig struct {
	UpdateRoundInterval time.Duration
	GracePeriod         time.Duration
	PingTimeout         time.Duration
	NumReports          int
	NumForwards         int
}

// DetectorConfigFromEnv builds a DetectorConfig from the standard env vars
// (UPDATE_ROUND_INTERVAL, GRACE_PERIOD, PING_TIMEOUT, NUM_REPORTS,
// NUM_FORWARDS), per spec.md §6's configuration surface table.
func DetectorConfigFromEnv() DetectorConfig {
	return DetectorConfig{
		UpdateRoundInterval: GetenvDuration("UPDATE_ROUND_INTERVAL", DefaultUpdateRoundInterval),
		GracePeriod:         GetenvDuration("GRACE_PERIOD", DefaultGracePeriod),
		PingTimeout:         GetenvDuration("PING_TIMEOUT", DefaultPingTimeout),
		NumReports:          GetenvInt("NUM_REPORTS", DefaultNumReports),
		NumForwards:         GetenvInt("NUM_FORWARDS", DefaultNumForwards),
	}
}

// SeedPeer identifies one gossip neighbor to add at startup, before any
// gossip has had a chance to discover it organically.
type SeedPeer struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
}

// String satisfies fmt.Stringer for log lines.
func (p SeedPeer) String() string {
	return fmt.Sprintf("%s:%d", p.Hostname, p.Port)
}
