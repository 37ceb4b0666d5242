package gossip

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dreamware/ringkv/internal/membership"
)

// defaultClientTimeout bounds how long a Client waits for a dial, write,
// and reply round-trip to complete.
const defaultClientTimeout = 25 * time.Millisecond

// Client sends gossip envelopes to other participants. It is stateless
// beyond its own identity and timeout, and safe for concurrent use — each
// call opens and closes its own connection, mirroring the original's
// one-shot REQ/REP exchange per message.
type Client struct {
	self    membership.Server
	timeout time.Duration
	dialer  net.Dialer
}

// ClientOption configures a Client at construction time.
type ClientOption func(*Client)

// WithClientTimeout overrides the default per-call timeout.
func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// NewClient returns a Client that identifies itself as self.
func NewClient(self membership.Server, opts ...ClientOption) *Client {
	c := &Client{self: self, timeout: defaultClientTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping sends a bare STATUS_UPDATE to target and waits for its OK reply.
func (c *Client) Ping(ctx context.Context, target membership.Server) error {
	return c.send(ctx, target, Envelope{Kind: StatusUpdate, Sender: c.self})
}

// SendReport sends a STATUS_REPORT carrying report to target.
func (c *Client) SendReport(ctx context.Context, target membership.Server, report Report) error {
	return c.send(ctx, target, Envelope{Kind: StatusReport, Sender: c.self, Report: report})
}

// RequestPing asks target to ping destination on our behalf — an indirect
// probe used when we can't reach destination directly ourselves.
func (c *Client) RequestPing(ctx context.Context, target, destination membership.Server) error {
	return c.send(ctx, target, Envelope{Kind: StatusRequest, Sender: c.self, Destination: destination})
}

func (c *Client) send(ctx context.Context, target membership.Server, env Envelope) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", target.Hostname, target.Port)
	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("gossip: dial %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := WriteEnvelope(conn, env); err != nil {
		return fmt.Errorf("gossip: send to %s: %w", addr, err)
	}

	reply := make([]byte, 4)
	n, err := conn.Read(reply)
	if err != nil {
		return fmt.Errorf("gossip: read reply from %s: %w", addr, err)
	}
	if string(reply[:n]) != "OK" {
		return fmt.Errorf("gossip: %s replied %q", addr, reply[:n])
	}
	return nil
}
