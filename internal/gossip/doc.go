// Package gossip implements the SWIM-style wire protocol that carries
// membership information between cluster participants: a small TCP server
// that accepts STATUS_UPDATE, STATUS_REPORT and STATUS_REQUEST envelopes,
// and a client used to send them. Envelopes are framed as a four-byte
// big-endian length prefix followed by a msgpack-encoded body, so any two
// processes running this package can talk to each other regardless of
// platform byte order.
//
// internal/detector drives this package's report and indirect-ping logic;
// gossip itself only knows how to accept connections, decode what arrived,
// fold it into internal/membership's tables, and reply OK or FAIL.
package gossip
