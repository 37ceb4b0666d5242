package statusapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dreamware/ringkv/internal/applog"
	"github.com/dreamware/ringkv/internal/gossip"
	"github.com/dreamware/ringkv/internal/membership"
)

// serverJSON is the wire shape of a membership.Server over the status API.
type serverJSON struct {
	Hostname string `json:"hostname"`
	Port     int    `json:"port"`
	IPAddr   string `json:"ip_addr,omitempty"`
}

func toServerJSON(s membership.Server) serverJSON {
	return serverJSON{Hostname: s.Hostname, Port: s.Port, IPAddr: s.IPAddr}
}

func (s serverJSON) toServer() membership.Server {
	return membership.Server{Hostname: s.Hostname, Port: s.Port, IPAddr: s.IPAddr}
}

// recordJSON is the wire shape of a membership.Record over the status API.
type recordJSON struct {
	Server    serverJSON `json:"server"`
	Timestamp time.Time  `json:"timestamp"`
	Forwarder serverJSON `json:"forwarder,omitempty"`
}

func toRecordJSON(r membership.Record) recordJSON {
	out := recordJSON{Server: toServerJSON(r.Server), Timestamp: r.Timestamp}
	if r.HasForwarder() {
		out.Forwarder = toServerJSON(r.Forwarder)
	}
	return out
}

// reportJSON is the response body of GET /api/v1/report.
type reportJSON struct {
	Sender    serverJSON   `json:"sender"`
	Alive     []recordJSON `json:"alive"`
	Suspected []recordJSON `json:"suspected"`
}

// Handler serves a gossip.Server's membership state over HTTP.
type Handler struct {
	server *gossip.Server
	logger zerolog.Logger
}

// NewHandler returns a Handler reporting on server's membership tables.
func NewHandler(server *gossip.Server) *Handler {
	return &Handler{
		server: server,
		logger: applog.WithComponent("statusapi").With().Str("server", server.Self().String()).Logger(),
	}
}

// Mux returns an http.ServeMux with every status API route registered,
// ready to be mounted directly or nested under a larger mux via Handle.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/report", h.handleReport)
	mux.HandleFunc("/api/v1/server", h.handleAddServer)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// handleReport answers GET /api/v1/report with the full current
// membership view: every alive and suspected record, regardless of
// whether it's already been gossiped this round. Unlike
// gossip.Server.PrepareReport, this never mutates the DidGossip flags —
// it's a read-only snapshot for operators and monitoring, not a gossip
// round.
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tables := h.server.Tables()
	alive := tables.AliveSnapshot()
	suspected := tables.SuspectedSnapshot()

	resp := reportJSON{
		Sender:    toServerJSON(h.server.Self()),
		Alive:     make([]recordJSON, len(alive)),
		Suspected: make([]recordJSON, len(suspected)),
	}
	for i, rec := range alive {
		resp.Alive[i] = toRecordJSON(rec)
	}
	for i, rec := range suspected {
		resp.Suspected[i] = toRecordJSON(rec)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn().Err(err).Msg("failed to encode report response")
	}
}

// handleAddServer answers POST /api/v1/server, seeding a new gossip
// neighbor by marking it alive directly: the convenience the original
// exposed as GossipFailureDetector::AddNeighbor, made reachable over the
// network so an operator (or the coordinator) can bootstrap a node's
// neighbor list without a config file restart.
func (h *Handler) handleAddServer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body serverJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if body.Hostname == "" || body.Port <= 0 {
		http.Error(w, "hostname and port are required", http.StatusBadRequest)
		return
	}

	server := body.toServer()
	h.server.Tables().MarkAlive(server, time.Now())
	h.logger.Info().Str("neighbor", server.String()).Msg("seeded new gossip neighbor via status API")

	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte("OK"))
}
