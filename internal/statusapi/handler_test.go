package statusapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
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

func newTestHandler(t *testing.T) (*Handler, *gossip.Server, membership.Server) {
	t.Helper()
	self := membership.Server{Hostname: "127.0.0.1", Port: pickPort(t)}
	srv := gossip.NewServer(self, membership.NewTables())
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})
	return NewHandler(srv), srv, self
}

func TestHandleReportReturnsAliveAndSuspected(t *testing.T) {
	h, srv, self := newTestHandler(t)
	peer := membership.Server{Hostname: "peer", Port: 9001}
	srv.Tables().MarkAlive(peer, time.Now())
	suspect := membership.Server{Hostname: "suspect", Port: 9002}
	srv.Tables().MarkSuspected(suspect, membership.Server{}, false, time.Now())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/report", nil)
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body reportJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, self.Hostname, body.Sender.Hostname)
	require.Len(t, body.Alive, 1)
	require.Equal(t, "peer", body.Alive[0].Server.Hostname)
	require.Len(t, body.Suspected, 1)
	require.Equal(t, "suspect", body.Suspected[0].Server.Hostname)
}

func TestHandleReportRejectsNonGet(t *testing.T) {
	h, _, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/report", nil)
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleAddServerSeedsNeighbor(t *testing.T) {
	h, srv, _ := newTestHandler(t)

	payload, err := json.Marshal(serverJSON{Hostname: "newneighbor", Port: 9003})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/server", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
	require.True(t, srv.Tables().IsAlive(membership.Server{Hostname: "newneighbor", Port: 9003}))
}

func TestHandleAddServerRejectsMissingFields(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/server", bytes.NewReader([]byte(`{"hostname":""}`)))
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAddServerRejectsMalformedJSON(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/server", bytes.NewReader([]byte(`not json`)))
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
