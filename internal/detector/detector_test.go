package detector

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dreamware/ringkv/internal/gossip"
	"github.com/dreamware/ringkv/internal/membership"
)

func pickPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func newTestServer(t *testing.T) (*gossip.Server, membership.Server) {
	t.Helper()
	self := membership.Server{Hostname: "127.0.0.1", Port: pickPort(t)}
	srv := gossip.NewServer(self, membership.NewTables(), gossip.WithPollInterval(5*time.Millisecond))
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})
	return srv, self
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, DefaultUpdateRoundInterval, cfg.UpdateRoundInterval)
	require.Equal(t, DefaultGracePeriod, cfg.GracePeriod)
	require.Equal(t, DefaultPingTimeout, cfg.PingTimeout)
	require.Equal(t, DefaultNumReports, cfg.NumReports)
	require.Equal(t, DefaultNumForwards, cfg.NumForwards)
}

func TestDetectorGossipsBetweenTwoNeighbors(t *testing.T) {
	srvA, selfA := newTestServer(t)
	srvB, selfB := newTestServer(t)

	detA := New(srvA, Config{UpdateRoundInterval: 20 * time.Millisecond, PingTimeout: 500 * time.Millisecond})
	detB := New(srvB, Config{UpdateRoundInterval: 20 * time.Millisecond, PingTimeout: 500 * time.Millisecond})

	detA.AddNeighbor(selfB)
	detB.AddNeighbor(selfA)

	require.NoError(t, detA.Start())
	require.NoError(t, detB.Start())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = detA.Stop(ctx)
		_ = detB.Stop(ctx)
	}()

	require.Eventually(t, func() bool {
		return srvA.Tables().IsAlive(selfB) && srvB.Tables().IsAlive(selfA)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDetectorSuspectsUnreachableNeighbor(t *testing.T) {
	srvA, _ := newTestServer(t)
	unreachable := membership.Server{Hostname: "127.0.0.1", Port: pickPort(t)}

	det := New(srvA, Config{UpdateRoundInterval: 20 * time.Millisecond, PingTimeout: 100 * time.Millisecond})
	det.AddNeighbor(unreachable)

	require.NoError(t, det.Start())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = det.Stop(ctx)
	}()

	require.Eventually(t, func() bool {
		return srvA.Tables().IsSuspected(unreachable)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDetectorEvictsAfterGracePeriod(t *testing.T) {
	srvA, _ := newTestServer(t)
	stale := membership.Server{Hostname: "stale", Port: 1}
	srvA.Tables().MarkSuspected(stale, membership.Server{}, false, time.Now().Add(-time.Hour))

	det := New(srvA, Config{UpdateRoundInterval: 10 * time.Millisecond, GracePeriod: time.Millisecond})
	require.NoError(t, det.Start())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = det.Stop(ctx)
	}()

	require.Eventually(t, func() bool {
		return !srvA.Tables().IsSuspected(stale)
	}, 2*time.Second, 10*time.Millisecond)
}
