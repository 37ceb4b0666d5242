// Package membership tracks cluster membership for the gossip failure
// detector: which servers are believed alive, which are suspected of
// having failed, and for how long. It is deliberately decoupled from the
// wire protocol (internal/gossip) and from data placement (internal/ring);
// a Server here is an address, not a ring bucket. Ring buckets are named
// "bucket-N" and carry no link to a Server's address.
package membership

import "fmt"

// Server identifies a gossip participant by network address. Equality and
// ordering only ever consider Hostname and Port: IPAddr is carried as
// optional routing information (useful when Hostname isn't DNS-resolvable)
// but two Servers with the same hostname and port are the same server
// regardless of what IPAddr says.
type Server struct {
	Hostname string
	Port     int
	IPAddr   string
}

// String renders the server the way log lines and reports expect to see
// it: 'hostname:port' optionally followed by the IP in brackets.
func (s Server) String() string {
	if s.IPAddr != "" {
		return fmt.Sprintf("'%s:%d' [%s]", s.Hostname, s.Port, s.IPAddr)
	}
	return fmt.Sprintf("'%s:%d'", s.Hostname, s.Port)
}

// Equal reports whether s and other name the same server: same hostname,
// same port. IPAddr is not part of identity.
func (s Server) Equal(other Server) bool {
	return s.Hostname == other.Hostname && s.Port == other.Port
}

// Less gives Server a total order: hostname first, lexicographically, then
// port. It carries no semantic meaning beyond letting Servers be sorted and
// stored in ordered structures; the original's ServerRecord ordering (used
// for storing records in a set) is built on top of this.
func (s Server) Less(other Server) bool {
	if s.Hostname != other.Hostname {
		return s.Hostname < other.Hostname
	}
	return s.Port < other.Port
}
