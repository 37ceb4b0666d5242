package gossip

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/ringkv/internal/applog"
	"github.com/dreamware/ringkv/internal/membership"
	"github.com/dreamware/ringkv/internal/workqueue"
)

// defaultPollInterval mirrors the original ZeroMQ server's poll timeout:
// the accept loop never blocks on I/O for longer than this, so Stop can
// always return promptly.
const defaultPollInterval = 10 * time.Millisecond

// defaultPingTimeout bounds how long a forwarded (indirect) ping is given
// to succeed before the forwarder gives up and reports the destination
// suspected on the requester's behalf.
const defaultPingTimeout = 200 * time.Millisecond

var replyOK = []byte("OK")
var replyFail = []byte("FAIL")

// Server accepts gossip connections and folds what it learns into a
// membership.Tables. It never gossips on its own initiative — that's
// internal/detector's job — it only answers what arrives.
type Server struct {
	self   membership.Server
	tables *membership.Tables

	pollInterval time.Duration
	pingTimeout  time.Duration
	logger       zerolog.Logger

	useWorkerPool bool
	workers       *workqueue.Queue[func()]
	numWorkers    int

	mu       sync.Mutex
	listener net.Listener
	running  bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithPollInterval overrides the accept loop's poll timeout.
func WithPollInterval(d time.Duration) Option {
	return func(s *Server) { s.pollInterval = d }
}

// WithPingTimeout overrides how long a forwarded ping is allowed to take.
func WithPingTimeout(d time.Duration) Option {
	return func(s *Server) { s.pingTimeout = d }
}

// WithWorkerPool dispatches onPingRequest forwarding work through a bounded
// pool of n background workers instead of spawning a goroutine per
// request. Use this on gossip participants that expect a high rate of
// indirect-ping forwarding.
func WithWorkerPool(n int) Option {
	return func(s *Server) {
		s.useWorkerPool = true
		s.numWorkers = n
		s.workers = workqueue.New[func()]()
	}
}

// NewServer returns a Server identifying itself as self and folding
// incoming membership information into tables.
func NewServer(self membership.Server, tables *membership.Tables, opts ...Option) *Server {
	s := &Server{
		self:         self,
		tables:       tables,
		pollInterval: defaultPollInterval,
		pingTimeout:  defaultPingTimeout,
		logger:       applog.WithComponent("gossip-server").With().Str("server", self.String()).Logger(),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds a TCP listener on the server's port and begins accepting
// gossip connections in the background. It returns once the listener is
// bound; Stop must be called to shut the accept loop down cleanly.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("gossip: server already running")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.self.Port))
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("gossip: listen on port %d: %w", s.self.Port, err)
	}
	s.listener = ln
	s.running = true
	s.mu.Unlock()

	s.logger.Info().Msg("gossip server listening")

	s.wg.Add(1)
	go s.acceptLoop()

	if s.useWorkerPool {
		for i := 0; i < s.numWorkers; i++ {
			s.wg.Add(1)
			go s.workerLoop()
		}
	}
	return nil
}

// Stop closes the listener and waits (up to ctx's deadline) for the accept
// loop, worker pool, and any in-flight forwarded pings to finish.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	err := s.listener.Close()
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn().Err(err).Msg("error closing listener")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("gossip: stop timed out waiting for background work: %w", ctx.Err())
	}
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		if tc, ok := s.listener.(*net.TCPListener); ok {
			_ = tc.SetDeadline(time.Now().Add(s.pollInterval))
		}

		conn, err := s.listener.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			select {
			case <-s.stopCh:
				return
			default:
				s.logger.Warn().Err(err).Msg("accept failed")
				continue
			}
		}

		s.handleConn(conn)
	}
}

func (s *Server) workerLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}
		task, ok := s.workers.TryPop()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		task()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	env, err := ReadEnvelope(conn)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode envelope")
		_, _ = conn.Write(replyFail)
		return
	}

	switch env.Kind {
	case StatusUpdate:
		s.onUpdate(env.Sender)
	case StatusReport:
		s.onReport(env)
	case StatusRequest:
		s.onPingRequest(env)
	default:
		s.logger.Warn().Int("kind", int(env.Kind)).Msg("unexpected envelope kind")
		_, _ = conn.Write(replyFail)
		return
	}

	_, _ = conn.Write(replyOK)
}

// onUpdate handles a bare STATUS_UPDATE: the sender is alive, full stop.
func (s *Server) onUpdate(sender membership.Server) {
	s.tables.MarkAlive(sender, time.Now())
}

// onReport merges a peer's STATUS_REPORT into our own tables.
func (s *Server) onReport(env Envelope) {
	for _, rec := range env.Report.Alive {
		s.tables.MergeAlive(rec, s.self)
	}

	now := time.Now()
	for _, rec := range env.Report.Suspected {
		if isSelf := s.tables.MergeSuspected(rec, s.self, now); isSelf {
			s.logger.Debug().Str("reporter", env.Sender.String()).Msg("reports of our death were greatly exaggerated; pinging back")
			s.refuteSuspicion(env.Sender)
		}
	}
}

// refuteSuspicion pings back whoever reported us suspected, proving we're
// still alive. It is fire-and-forget: if the ping itself fails there is
// nothing more useful to do than let the suspicion stand until the next
// report round.
func (s *Server) refuteSuspicion(reporter membership.Server) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		client := NewClient(s.self)
		ctx, cancel := context.WithTimeout(context.Background(), s.pingTimeout)
		defer cancel()
		if err := client.Ping(ctx, reporter); err != nil {
			s.logger.Warn().Err(err).Str("reporter", reporter.String()).Msg("failed to refute suspicion")
		}
	}()
}

// onPingRequest handles a STATUS_REQUEST: sender is asking us to ping
// destination on its behalf (an indirect probe), because sender couldn't
// reach destination directly. We also mark sender alive, since it just
// spoke to us.
func (s *Server) onPingRequest(env Envelope) {
	sender, destination := env.Sender, env.Destination

	task := func() {
		client := NewClient(s.self)
		ctx, cancel := context.WithTimeout(context.Background(), s.pingTimeout)
		defer cancel()

		if err := client.Ping(ctx, destination); err == nil {
			s.logger.Debug().Str("destination", destination.String()).Msg("forwarded ping succeeded; reporting alive")
			report := Report{
				Sender: s.self,
				Alive:  []membership.Record{membership.NewRecord(destination, time.Now())},
			}
			replyCtx, replyCancel := context.WithTimeout(context.Background(), s.pingTimeout)
			defer replyCancel()
			if err := client.SendReport(replyCtx, sender, report); err != nil {
				s.logger.Warn().Err(err).Str("sender", sender.String()).Msg("failed to report forwarded ping result")
			}
			return
		}

		s.logger.Warn().Str("destination", destination.String()).Msg("forwarded ping failed; adding to suspects")
		s.tables.MarkSuspected(destination, membership.Server{}, false, time.Now())
	}

	if s.useWorkerPool {
		if err := s.workers.Push(task); err != nil {
			s.logger.Warn().Err(err).Msg("failed to enqueue forwarded ping; running inline")
			s.wg.Add(1)
			go func() { defer s.wg.Done(); task() }()
		}
	} else {
		s.wg.Add(1)
		go func() { defer s.wg.Done(); task() }()
	}

	s.onUpdate(sender)
}

// PrepareReport builds a Report of everything that hasn't yet been
// gossiped, draining the pending-alive and pending-suspected queues so the
// next round only sends what's new.
func (s *Server) PrepareReport() Report {
	return Report{
		Sender:    s.self,
		Alive:     s.tables.DrainPendingAlive(),
		Suspected: s.tables.DrainPendingSuspected(),
	}
}

// Self returns the server's own identity.
func (s *Server) Self() membership.Server { return s.self }

// Tables returns the underlying membership tables, for callers (primarily
// internal/detector) that need direct access to drive the report and
// eviction loops.
func (s *Server) Tables() *membership.Tables { return s.tables }
