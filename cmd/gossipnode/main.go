// Command gossipnode is a minimal demo binary that runs nothing but the
// SWIM-style failure detector: no kvstore, no coordinator registration,
// just a gossip server and a detector that pings its neighbors and reports
// on whoever it thinks is alive or suspected.
//
// It exists to let a developer watch gossip converge on a handful of
// processes without standing up the full cluster (coordinator + nodes +
// data plane) described by cmd/coordinator and cmd/node.
//
// Usage:
//
//	gossipnode --port=7946 [--seed=host:port] [--duration=30s]
//
// With no --seed, the node starts alone and simply waits for other
// gossipnode instances to add it as a neighbor. With --seed, it adds that
// peer as a neighbor immediately, so two gossipnode processes pointed at
// each other converge within one report round.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dreamware/ringkv/internal/config"
	"github.com/dreamware/ringkv/internal/detector"
	"github.com/dreamware/ringkv/internal/gossip"
	"github.com/dreamware/ringkv/internal/membership"
	"github.com/dreamware/ringkv/internal/statusapi"
)

func main() {
	var (
		host       = flag.String("host", "127.0.0.1", "hostname this node gossips as")
		port       = flag.Int("port", config.DefaultGossipPort, "gossip TCP port")
		httpListen = flag.String("http", "", "optional host:port to serve the status API and /metrics on")
		seed       = flag.String("seed", "", "optional host:port of a neighbor to ping immediately")
		duration   = flag.Duration("duration", 0, "if > 0, exit automatically after this long")
	)
	flag.Parse()

	self := membership.Server{Hostname: *host, Port: *port}
	tables := membership.NewTables()
	gossipServer := gossip.NewServer(self, tables)

	dc := config.DetectorConfigFromEnv()
	det := detector.New(gossipServer, detector.Config{
		UpdateRoundInterval: dc.UpdateRoundInterval,
		GracePeriod:         dc.GracePeriod,
		PingTimeout:         dc.PingTimeout,
		NumReports:          dc.NumReports,
		NumForwards:         dc.NumForwards,
	})

	if *seed != "" {
		host, portStr, err := splitHostPort(*seed)
		if err != nil {
			log.Fatalf("invalid --seed %q: %v", *seed, err)
		}
		peerPort, err := parsePort(portStr)
		if err != nil {
			log.Fatalf("invalid --seed %q: %v", *seed, err)
		}
		det.AddNeighbor(membership.Server{Hostname: host, Port: peerPort})
	}

	if err := gossipServer.Start(); err != nil {
		log.Fatalf("failed to start gossip server: %v", err)
	}
	if err := det.Start(); err != nil {
		log.Fatalf("failed to start detector: %v", err)
	}
	log.Printf("gossipnode %s running, reporting every %s", self.String(), dc.UpdateRoundInterval)

	var httpSrv *http.Server
	if *httpListen != "" {
		httpSrv = &http.Server{
			Addr:              *httpListen,
			Handler:           statusapi.NewHandler(gossipServer).Mux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Printf("status API listening on %s", *httpListen)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("status API server error: %v", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	if *duration > 0 {
		go func() {
			time.Sleep(*duration)
			stop <- syscall.SIGTERM
		}()
	}

	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := det.Stop(shutdownCtx); err != nil {
		log.Printf("detector shutdown error: %v", err)
	}
	if err := gossipServer.Stop(shutdownCtx); err != nil {
		log.Printf("gossip server shutdown error: %v", err)
	}
	if httpSrv != nil {
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("status API shutdown error: %v", err)
		}
	}
	log.Println("gossipnode stopped")
}

func splitHostPort(s string) (host, port string, err error) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			return s[:i], s[i+1:], nil
		}
	}
	return "", "", errInvalidHostPort
}

func parsePort(s string) (int, error) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errInvalidHostPort
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

var errInvalidHostPort = portError("expected host:port")

type portError string

func (e portError) Error() string { return string(e) }
