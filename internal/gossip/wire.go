package gossip

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/dreamware/ringkv/internal/membership"
)

// maxEnvelopeBytes bounds how large a single framed envelope may be, so a
// corrupt or malicious length prefix can't make the reader try to allocate
// an unbounded buffer.
const maxEnvelopeBytes = 8 << 20 // 8 MiB

// wireServer is the on-the-wire shape of a membership.Server. msgpack
// can't serialize membership.Server directly since none of its fields are
// renamed for the wire, but keeping a distinct type here (rather than
// adding msgpack tags to membership.Server) keeps the wire format a
// concern of this package alone.
type wireServer struct {
	Hostname string `msgpack:"hostname"`
	Port     int    `msgpack:"port"`
	IPAddr   string `msgpack:"ip_addr,omitempty"`
}

func toWireServer(s membership.Server) wireServer {
	return wireServer{Hostname: s.Hostname, Port: s.Port, IPAddr: s.IPAddr}
}

func (w wireServer) toServer() membership.Server {
	return membership.Server{Hostname: w.Hostname, Port: w.Port, IPAddr: w.IPAddr}
}

// wireRecord is the on-the-wire shape of a membership.Record. Timestamp is
// carried as Unix nanoseconds so both ends agree on its meaning regardless
// of local clock representation.
type wireRecord struct {
	Server       wireServer `msgpack:"server"`
	TimestampNs  int64      `msgpack:"timestamp_ns"`
	DidGossip    bool       `msgpack:"did_gossip"`
	Forwarder    wireServer `msgpack:"forwarder,omitempty"`
	HasForwarder bool       `msgpack:"has_forwarder"`
}

func toWireRecord(r membership.Record) wireRecord {
	w := wireRecord{
		Server:      toWireServer(r.Server),
		TimestampNs: r.Timestamp.UnixNano(),
		DidGossip:   r.DidGossip,
	}
	if r.HasForwarder() {
		w.Forwarder = toWireServer(r.Forwarder)
		w.HasForwarder = true
	}
	return w
}

func (w wireRecord) toRecord() membership.Record {
	ts := time.Unix(0, w.TimestampNs)
	if w.HasForwarder {
		rec := membership.NewForwardedRecord(w.Server.toServer(), w.Forwarder.toServer(), ts)
		rec.DidGossip = w.DidGossip
		return rec
	}
	rec := membership.NewRecord(w.Server.toServer(), ts)
	rec.DidGossip = w.DidGossip
	return rec
}

type wireReport struct {
	Sender    wireServer   `msgpack:"sender"`
	Alive     []wireRecord `msgpack:"alive"`
	Suspected []wireRecord `msgpack:"suspected"`
}

func toWireReport(r Report) wireReport {
	w := wireReport{
		Sender:    toWireServer(r.Sender),
		Alive:     make([]wireRecord, len(r.Alive)),
		Suspected: make([]wireRecord, len(r.Suspected)),
	}
	for i, rec := range r.Alive {
		w.Alive[i] = toWireRecord(rec)
	}
	for i, rec := range r.Suspected {
		w.Suspected[i] = toWireRecord(rec)
	}
	return w
}

func (w wireReport) toReport() Report {
	r := Report{
		Sender:    w.Sender.toServer(),
		Alive:     make([]membership.Record, len(w.Alive)),
		Suspected: make([]membership.Record, len(w.Suspected)),
	}
	for i, rec := range w.Alive {
		r.Alive[i] = rec.toRecord()
	}
	for i, rec := range w.Suspected {
		r.Suspected[i] = rec.toRecord()
	}
	return r
}

type wireEnvelope struct {
	Kind        int        `msgpack:"kind"`
	Sender      wireServer `msgpack:"sender"`
	Destination wireServer `msgpack:"destination,omitempty"`
	Report      wireReport `msgpack:"report,omitempty"`
}

func toWireEnvelope(e Envelope) wireEnvelope {
	return wireEnvelope{
		Kind:        int(e.Kind),
		Sender:      toWireServer(e.Sender),
		Destination: toWireServer(e.Destination),
		Report:      toWireReport(e.Report),
	}
}

func (w wireEnvelope) toEnvelope() Envelope {
	return Envelope{
		Kind:        Kind(w.Kind),
		Sender:      w.Sender.toServer(),
		Destination: w.Destination.toServer(),
		Report:      w.Report.toReport(),
	}
}

// WriteEnvelope frames env as a four-byte big-endian length prefix
// followed by its msgpack encoding, and writes both to w.
func WriteEnvelope(w io.Writer, env Envelope) error {
	body, err := msgpack.Marshal(toWireEnvelope(env))
	if err != nil {
		return fmt.Errorf("gossip: marshal envelope: %w", err)
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("gossip: write length prefix: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("gossip: write envelope body: %w", err)
	}
	return nil
}

// ReadEnvelope reads one length-prefixed, msgpack-encoded envelope from r.
func ReadEnvelope(r io.Reader) (Envelope, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return Envelope{}, fmt.Errorf("gossip: read length prefix: %w", err)
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > maxEnvelopeBytes {
		return Envelope{}, fmt.Errorf("gossip: envelope of %d bytes exceeds limit of %d", size, maxEnvelopeBytes)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return Envelope{}, fmt.Errorf("gossip: read envelope body: %w", err)
	}

	var w wireEnvelope
	if err := msgpack.Unmarshal(body, &w); err != nil {
		return Envelope{}, fmt.Errorf("gossip: unmarshal envelope: %w", err)
	}
	return w.toEnvelope(), nil
}
