// Package statusapi exposes a node's gossip state over HTTP: a point-in-time
// membership report, a way to seed a new neighbor, and a Prometheus metrics
// endpoint. It is the Go, JSON-over-HTTP successor to the original's
// libmicrohttpd-based REST API, which served a protobuf-to-JSON rendering
// of the same report from a single endpoint.
package statusapi
