package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradinglions/internal/config"
	"tradinglions/internal/decision"
	"tradinglions/internal/engine"
	"tradinglions/internal/gateway/broker"
	"tradinglions/internal/market"
	"tradinglions/internal/types"
)

type fakeClient struct {
	mu      sync.Mutex
	placed  []broker.PlaceRequest
	nextRef any
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) PlaceOption(_ context.Context, req broker.PlaceRequest) (broker.PlaceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, req)
	ref := f.nextRef
	if ref == nil {
		ref = 777
	}
	return broker.PlaceResult{Accepted: true, RawRef: ref}, nil
}

func (f *fakeClient) RecentlyClosed(context.Context, int) ([]broker.ClosedOption, error) {
	return nil, nil
}

func (f *fakeClient) placedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.placed)
}

// trendingCollector mirrors an uptrending asset ending in a bullish
// engulfing bar, enough history for the decision engine.
func trendingCollector(asset string) *market.Collector {
	c := market.NewCollector()
	for i := 0; i < 45; i++ {
		px := 1.0 + 0.01*float64(i)
		c.Ingest(asset, types.TimeframeM5, types.Candle{
			From: int64(300 * (i + 1)), Open: px - 0.005,
			High: px + 0.005, Low: px - 0.01, Close: px,
		})
	}
	for i := 0; i < 58; i++ {
		px := 2.0 + 0.0005*float64(i)
		c.Ingest(asset, types.TimeframeM1, types.Candle{
			From: int64(60 * (i + 1)), Open: px - 0.02,
			High: px + 0.02, Low: px - 0.04, Close: px,
		})
	}
	c.Ingest(asset, types.TimeframeM1,
		types.Candle{From: 60 * 59, Open: 2.03, High: 2.05, Low: 2.01, Close: 2.02},
		types.Candle{From: 60 * 60, Open: 2.00, High: 2.10, Low: 1.99, Close: 2.09},
	)
	c.UpdatePayout(asset, 0.85)
	return c
}

func newTestBot(t *testing.T, client *fakeClient) (*Bot, *engine.Registry, *engine.Flight) {
	t.Helper()
	collector := trendingCollector("EURUSD")
	registry := engine.NewRegistry()
	resolver := engine.NewResolver(nil)
	flight := &engine.Flight{}
	b := New(Deps{
		Client:    client,
		Collector: collector,
		Engine:    decision.NewEngine(collector, nil, decision.DefaultOptions()),
		Submitter: engine.NewSubmitter(client, registry, nil, 1),
		Registry:  registry,
		Flight:    flight,
		Poller:    engine.NewPoller(registry, client, resolver, engine.PollerOptions{}),
		Trading: config.TradingConfig{
			Assets:    []string{"EURUSD"},
			BaseStake: 2.0,
		},
	})
	return b, registry, flight
}

func TestTickSchedulesEntryForNextCandle(t *testing.T) {
	client := &fakeClient{}
	b, _, _ := newTestBot(t, client)

	b.Tick(context.Background())

	require.NotNil(t, b.pending)
	assert.Equal(t, "EURUSD", b.pending.Asset)
	assert.False(t, b.enterAt.IsZero())
	assert.Zero(t, client.placedCount(), "order must wait for the candle open")
}

func TestTickEntersWhenCandleOpens(t *testing.T) {
	client := &fakeClient{}
	b, registry, flight := newTestBot(t, client)

	b.pending = &types.Candidate{
		Asset: "EURUSD", Direction: types.DirectionCall,
		Score: 0.9, Payout: 0.85, Price: 2.09,
	}
	b.enterAt = time.Now().Add(-time.Second)

	b.Tick(context.Background())

	assert.Equal(t, 1, client.placedCount())
	assert.Equal(t, 1, registry.Len())
	id, busy := flight.Current()
	require.True(t, busy)
	assert.Equal(t, "EURUSD-777", id)
	assert.Nil(t, b.pending)
}

func TestTickDoesNotScanWhileBusy(t *testing.T) {
	client := &fakeClient{}
	b, registry, flight := newTestBot(t, client)

	require.True(t, flight.TryAcquire())
	order := &types.Order{
		TradeID: "EURUSD-1", Asset: "EURUSD", Direction: types.DirectionCall,
		Stake: 1, Duration: 1, OpenedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, registry.Register(order))
	flight.Bind(order.TradeID)

	b.Tick(context.Background())

	assert.Nil(t, b.pending)
	assert.Zero(t, client.placedCount())
}

func TestExpiredFlightIsReleased(t *testing.T) {
	client := &fakeClient{}
	b, registry, flight := newTestBot(t, client)

	require.True(t, flight.TryAcquire())
	order := &types.Order{
		TradeID: "EURUSD-9", Asset: "EURUSD", Direction: types.DirectionCall,
		Stake: 1, Duration: 1, OpenedAt: time.Now().Add(-2 * time.Minute),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, registry.Register(order))
	flight.Bind(order.TradeID)

	b.releaseExpiredFlight()

	assert.False(t, flight.Busy())
}

func TestStakeFallsBackToBase(t *testing.T) {
	client := &fakeClient{}
	b, _, _ := newTestBot(t, client)
	assert.Equal(t, 2.0, b.stakeFor("EURUSD"))
}
