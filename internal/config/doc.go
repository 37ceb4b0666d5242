// Package config loads ringkv's runtime configuration for cmd/node and
// cmd/gossipnode. cmd/coordinator does not use it; it reads its own
// environment variables.
//
// Configuration layers, lowest precedence first:
//
//  1. Documented defaults (see the Default* constants in this package).
//  2. An optional .env file loaded via github.com/joho/godotenv, for local
//     development — never required, and silently skipped if absent.
//  3. Environment variables, following the teacher's getenv/mustGetenv
//     convention: every field has a single uppercase env var name.
//  4. An optional -cluster-file YAML document (see ClusterFile), which
//     only ever supplies the handful of fields a single env var can't:
//     the initial bucket layout and a list of seed peers to gossip with
//     on startup. Anything the cluster file doesn't set falls back to
//     the env/default layers.
package config
