package gossip

import "github.com/dreamware/ringkv/internal/membership"

// Kind identifies what an Envelope carries.
type Kind int

const (
	// StatusUpdate is a bare "I'm alive" ping: the sender wants the
	// recipient to mark it alive, and to reply OK.
	StatusUpdate Kind = iota

	// StatusReport carries a Report of the sender's alive/suspected
	// tables, to be merged into the recipient's own tables.
	StatusReport

	// StatusRequest asks the recipient to ping Destination on the
	// sender's behalf (indirect probing of a server the sender couldn't
	// reach directly) and report back.
	StatusRequest
)

// String renders a Kind for logging.
func (k Kind) String() string {
	switch k {
	case StatusUpdate:
		return "STATUS_UPDATE"
	case StatusReport:
		return "STATUS_REPORT"
	case StatusRequest:
		return "STATUS_REQUEST"
	default:
		return "UNKNOWN"
	}
}

// Report is a snapshot of one server's view of cluster membership, sent as
// the payload of a StatusReport envelope.
type Report struct {
	Sender    membership.Server
	Alive     []membership.Record
	Suspected []membership.Record
}

// Envelope is the unit of exchange between gossip participants.
type Envelope struct {
	Kind Kind

	// Sender is always set: every envelope identifies who sent it.
	Sender membership.Server

	// Destination is set only for StatusRequest: who the recipient is
	// being asked to ping on the sender's behalf.
	Destination membership.Server

	// Report is set only for StatusReport.
	Report Report
}
