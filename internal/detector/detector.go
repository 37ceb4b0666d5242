package detector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dreamware/ringkv/internal/applog"
	"github.com/dreamware/ringkv/internal/gossip"
	"github.com/dreamware/ringkv/internal/membership"
)

// Default tuning constants, ported from the original detector's
// kDefaultNumReports / kDefaultNumForward and its constructor defaults.
const (
	DefaultUpdateRoundInterval = time.Second
	DefaultGracePeriod         = 30 * time.Second
	DefaultPingTimeout         = 25 * time.Millisecond
	DefaultNumReports          = 6
	DefaultNumForwards         = 3
)

// Config tunes a Detector's report and eviction loops.
type Config struct {
	// UpdateRoundInterval is how often the report loop runs, and also how
	// often the eviction sweep runs — the original runs both on the same
	// cadence.
	UpdateRoundInterval time.Duration

	// GracePeriod is how long a server may stay suspected before it's
	// evicted outright.
	GracePeriod time.Duration

	// PingTimeout bounds how long any single gossip call (report, ping,
	// forwarded-ping request) is allowed to take.
	PingTimeout time.Duration

	// NumReports is how many random alive neighbors receive a report each
	// round.
	NumReports int

	// NumForwards is how many neighbors are asked to forward-probe a
	// newly suspected server on our behalf.
	NumForwards int
}

// withDefaults fills any zero-valued field with its default.
func (c Config) withDefaults() Config {
	if c.UpdateRoundInterval <= 0 {
		c.UpdateRoundInterval = DefaultUpdateRoundInterval
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = DefaultPingTimeout
	}
	if c.NumReports <= 0 {
		c.NumReports = DefaultNumReports
	}
	if c.NumForwards <= 0 {
		c.NumForwards = DefaultNumForwards
	}
	return c
}

// Detector runs the two background loops that make up the SWIM failure
// detector: SendReport (gossip with random neighbors, suspecting those
// that don't respond) and GarbageCollectSuspected (evict long-suspected
// servers). It operates on top of a gossip.Server, which already answers
// incoming gossip traffic; Detector is what makes this server an active
// gossip participant rather than a passive one.
type Detector struct {
	server *gossip.Server
	cfg    Config
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New returns a Detector driving server's report and eviction loops
// according to cfg (zero-valued fields take their documented defaults).
func New(server *gossip.Server, cfg Config) *Detector {
	cfg = cfg.withDefaults()
	return &Detector{
		server: server,
		cfg:    cfg,
		logger: applog.WithComponent("detector").With().Str("server", server.Self().String()).Logger(),
	}
}

// AddNeighbor registers host as a gossip neighbor, if it isn't already
// known. This is a convenience for bootstrapping: the operator seeds a
// handful of known addresses, and gossip takes it from there.
func (d *Detector) AddNeighbor(host membership.Server) {
	if d.server.Tables().IsAlive(host) {
		return
	}
	d.server.Tables().MarkAlive(host, time.Now())
}

// Start launches the report and eviction loops in the background.
func (d *Detector) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return fmt.Errorf("detector: already running")
	}
	d.running = true
	d.stopCh = make(chan struct{})

	d.wg.Add(2)
	go d.reportLoop()
	go d.evictionLoop()
	return nil
}

// Stop signals both loops to exit and waits, bounded by ctx, for them (and
// any in-flight forwarded-ping goroutine they started) to finish.
func (d *Detector) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("detector: stop timed out: %w", ctx.Err())
	}
}

func (d *Detector) reportLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.UpdateRoundInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.sendReport()
		}
	}
}

func (d *Detector) evictionLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.UpdateRoundInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.garbageCollectSuspected()
		}
	}
}

// sendReport is one round of SendReport: pick up to NumReports unique
// alive neighbors, send each the pending report, and suspect (with
// forwarding) any that don't answer.
func (d *Detector) sendReport() {
	roundID := uuid.New().String()
	logger := applog.WithRound(roundID)

	tables := d.server.Tables()
	aliveGauge.Set(float64(tables.AliveCount()))
	suspectedGauge.Set(float64(tables.SuspectedCount()))

	if tables.AliveCount() == 0 {
		logger.Debug().Msg("no neighbors, skipping report round")
		return
	}

	start := time.Now()
	defer func() { roundDuration.Observe(time.Since(start).Seconds()) }()

	report := d.server.PrepareReport()
	neighbors := tables.RandomNeighbors(d.cfg.NumReports, d.server.Self())
	if len(neighbors) == 0 {
		return
	}

	client := gossip.NewClient(d.server.Self(), gossip.WithClientTimeout(d.cfg.PingTimeout))
	for _, n := range neighbors {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.PingTimeout)
		err := client.SendReport(ctx, n, report)
		cancel()

		if err != nil {
			logger.Warn().Str("neighbor", n.String()).Err(err).Msg("report send failed; suspecting")
			d.suspectWithForwarding(n, roundID)
			continue
		}
		tables.MarkAlive(n, time.Now())
	}
}

// suspectWithForwarding marks target suspected and asks NumForwards other
// neighbors to try pinging it on our behalf, in case it's only
// unreachable from us specifically. roundID ties the forwarded pings
// back to the report round that triggered them in the logs.
func (d *Detector) suspectWithForwarding(target membership.Server, roundID string) {
	logger := applog.WithRound(roundID)

	tables := d.server.Tables()
	tables.MarkSuspected(target, membership.Server{}, false, time.Now())
	suspicionsTotal.Inc()

	forwarders := tables.RandomNeighbors(d.cfg.NumForwards, d.server.Self())
	if len(forwarders) == 0 {
		return
	}

	client := gossip.NewClient(d.server.Self(), gossip.WithClientTimeout(d.cfg.PingTimeout))
	for _, f := range forwarders {
		if f.Equal(target) {
			continue
		}
		f := f
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), d.cfg.PingTimeout)
			defer cancel()
			if err := client.RequestPing(ctx, f, target); err != nil {
				logger.Debug().Str("forwarder", f.String()).Str("target", target.String()).Err(err).Msg("forwarding request failed")
			}
		}()
	}
}

// garbageCollectSuspected evicts any suspected server that has exceeded
// the configured grace period.
func (d *Detector) garbageCollectSuspected() {
	tables := d.server.Tables()
	evicted := tables.EvictExpired(d.cfg.GracePeriod, time.Now())
	for _, s := range evicted {
		d.logger.Info().Str("server", s.String()).Msg("suspected server exceeded grace period, presumed dead")
	}
	evictionsTotal.Add(float64(len(evicted)))
	suspectedGauge.Set(float64(tables.SuspectedCount()))
}
