// Package membership tracks which cluster servers a gossip participant
// currently believes are alive versus suspected of failure. See server.go
// for the Server identity type, record.go for what's stored per server,
// and tables.go for the concurrency-safe alive/suspected tables themselves.
package membership
