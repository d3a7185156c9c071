package apihttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradinglions/internal/engine"
	"tradinglions/internal/market"
	"tradinglions/internal/types"
)

func newTestServer(t *testing.T) (*Server, *engine.Registry, *engine.Stats) {
	t.Helper()
	reg := engine.NewRegistry()
	stats := &engine.Stats{}
	m := market.NewCollector()
	m.UpdatePayout("EURUSD", 0.85)
	srv := NewServer(ServerConfig{Registry: reg, Stats: stats, Market: m})
	return srv, reg, stats
}

func get(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestPendingEndpoint(t *testing.T) {
	srv, reg, _ := newTestServer(t)
	require.NoError(t, reg.Register(&types.Order{
		TradeID: "EURUSD-1", Asset: "EURUSD", Direction: types.DirectionCall,
		Stake: 1, Duration: 1, OpenedAt: time.Now(),
	}))

	rec, body := get(t, srv, "/api/pending")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	pending, ok := body["pending"].([]any)
	require.True(t, ok)
	require.Len(t, pending, 1)
}

func TestStatsEndpoint(t *testing.T) {
	srv, _, stats := newTestServer(t)
	stats.Record(types.Resolution{
		Order:    &types.Order{TradeID: "EURUSD-1"},
		Outcome:  types.OutcomeWin,
		Profit:   0.85,
		ClosedAt: time.Now(),
	})

	rec, body := get(t, srv, "/api/stats")
	assert.Equal(t, http.StatusOK, rec.Code)
	session, ok := body["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), session["wins"])
}

func TestPayoutsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	// Payouts come from stored candles; only assets with history show up.
	rec, _ := get(t, srv, "/api/payouts")
	assert.Equal(t, http.StatusOK, rec.Code)
}
