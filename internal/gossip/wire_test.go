package gossip

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/ringkv/internal/membership"
)

func TestWriteReadEnvelopeRoundTrip(t *testing.T) {
	sender := membership.Server{Hostname: "node-a", Port: 7000}
	dest := membership.Server{Hostname: "node-b", Port: 7001, IPAddr: "10.0.0.2"}
	now := time.Now().Truncate(time.Nanosecond)

	rec := membership.NewForwardedRecord(dest, sender, now)

	env := Envelope{
		Kind:        StatusReport,
		Sender:      sender,
		Destination: dest,
		Report: Report{
			Sender:    sender,
			Alive:     []membership.Record{rec},
			Suspected: nil,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEnvelope(&buf, env))

	got, err := ReadEnvelope(&buf)
	require.NoError(t, err)

	assert.Equal(t, StatusReport, got.Kind)
	assert.Equal(t, sender, got.Sender)
	assert.Equal(t, dest, got.Destination)
	require.Len(t, got.Report.Alive, 1)
	assert.True(t, got.Report.Alive[0].Server.Equal(dest))
	assert.True(t, got.Report.Alive[0].HasForwarder())
	assert.True(t, got.Report.Alive[0].Forwarder.Equal(sender))
	assert.WithinDuration(t, now, got.Report.Alive[0].Timestamp, time.Microsecond)
}

func TestReadEnvelopeRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x7F, 0xFF, 0xFF, 0xFF})
	_, err := ReadEnvelope(&buf)
	require.Error(t, err)
}

func TestReadEnvelopeTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 10})
	buf.Write([]byte("short"))
	_, err := ReadEnvelope(&buf)
	require.Error(t, err)
}
