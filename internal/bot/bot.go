// Package bot runs the live trading loop: sync market data, scan for an
// entry, place it at the next candle open, and keep the result machinery fed.
package bot

import (
	"context"
	"strings"
	"time"

	"tradinglions/internal/config"
	"tradinglions/internal/decision"
	"tradinglions/internal/engine"
	"tradinglions/internal/gateway/broker"
	"tradinglions/internal/logger"
	"tradinglions/internal/market"
	"tradinglions/internal/scheduler"
	"tradinglions/internal/store/decisionlog"
	"tradinglions/internal/types"
)

const syncCandleCount = 5

// Deps lists the bot's collaborators. Profiles and Decisions may be nil.
type Deps struct {
	Client    broker.Client
	Market    broker.MarketData
	Collector *market.Collector
	Engine    *decision.Engine
	Submitter *engine.Submitter
	Registry  *engine.Registry
	Flight    *engine.Flight
	Poller    *engine.Poller
	Profiles  *config.ProfileRegistry
	Decisions *decisionlog.Store

	Trading config.TradingConfig
}

// Bot owns the per-tick trading state machine.
type Bot struct {
	deps Deps

	pending    *types.Candidate
	enterAt    time.Time
	reinforced map[string]bool
}

func New(deps Deps) *Bot {
	return &Bot{deps: deps, reinforced: make(map[string]bool)}
}

// Tick advances the loop once. It is called every second.
func (b *Bot) Tick(ctx context.Context) {
	b.syncMarket(ctx)
	b.releaseExpiredFlight()

	now := time.Now()
	switch {
	case b.pending != nil && !now.Before(b.enterAt):
		cand := *b.pending
		b.pending = nil
		b.enter(ctx, cand)
	case b.pending == nil && !b.deps.Flight.Busy():
		b.scan(ctx, now)
	case b.deps.Trading.Reinforce && b.deps.Flight.Busy():
		b.maybeReinforce(ctx)
	}

	// Nudge the fallback poller so pending results are chased every tick.
	b.deps.Poller.Trigger()
}

// syncMarket pulls the freshest candles and payout for every traded asset.
func (b *Bot) syncMarket(ctx context.Context) {
	if b.deps.Market == nil {
		return
	}
	for _, asset := range b.deps.Trading.Assets {
		if m1, err := b.deps.Market.Candles(ctx, asset, types.TimeframeM1, syncCandleCount); err == nil {
			b.deps.Collector.Ingest(asset, types.TimeframeM1, m1...)
		} else {
			logger.Debugf("bot: m1 sync %s: %v", asset, err)
		}
		if m5, err := b.deps.Market.Candles(ctx, asset, types.TimeframeM5, 2); err == nil {
			b.deps.Collector.Ingest(asset, types.TimeframeM5, m5...)
		}
		if payout, err := b.deps.Market.Payout(ctx, asset); err == nil && payout > 0 {
			b.deps.Collector.UpdatePayout(asset, payout)
		}
	}
}

// releaseExpiredFlight frees the entry slot once the in-flight option has
// passed its contract expiry. The registry keeps chasing the result; the
// slot only gates new entries.
func (b *Bot) releaseExpiredFlight() {
	tradeID, busy := b.deps.Flight.Current()
	if !busy {
		return
	}
	for _, order := range b.deps.Registry.Snapshot() {
		if order.TradeID != tradeID {
			continue
		}
		if time.Now().Before(order.ExpiresAt) {
			return
		}
		break
	}
	// Either resolved (gone from the registry) or expired.
	b.deps.Flight.Release()
	delete(b.reinforced, tradeID)
	logger.Debugf("bot: entry slot freed after %s", tradeID)
}

// scan looks for the best candidate and schedules it for the next candle
// open, so entries always align with a fresh bar.
func (b *Bot) scan(ctx context.Context, now time.Time) {
	assets := b.tradableAssets()
	if len(assets) == 0 {
		return
	}
	cand, ok := b.deps.Engine.Best(ctx, assets)
	if !ok {
		return
	}
	if min, has := b.profileMinScore(cand.Asset); has && cand.Score < min {
		return
	}
	b.pending = &cand
	b.enterAt = scheduler.NextCandleOpen(now, types.TimeframeM1)
	logger.Infof("bot: scheduled %s %s score=%.2f for %s",
		cand.Asset, cand.Direction, cand.Score, b.enterAt.Format("15:04:05"))
}

func (b *Bot) enter(ctx context.Context, cand types.Candidate) {
	if !b.deps.Flight.TryAcquire() {
		return
	}
	order, err := b.deps.Submitter.Submit(ctx, b.entryRequest(cand))
	if err != nil {
		b.deps.Flight.Release()
		logger.Errorf("bot: entry on %s failed: %v", cand.Asset, err)
		b.trace(ctx, cand, false, err.Error())
		return
	}
	b.deps.Flight.Bind(order.TradeID)
	b.trace(ctx, cand, true, "")
}

// maybeReinforce adds one extra stake on the in-flight asset when the setup
// repeats in the same direction mid-trade.
func (b *Bot) maybeReinforce(ctx context.Context) {
	tradeID, busy := b.deps.Flight.Current()
	if !busy || b.reinforced[tradeID] {
		return
	}
	var current *types.Order
	for _, order := range b.deps.Registry.Snapshot() {
		if order.TradeID == tradeID {
			o := order
			current = &o
			break
		}
	}
	if current == nil {
		return
	}
	cand, ok := b.deps.Engine.Evaluate(ctx, current.Asset)
	if !ok || cand.Direction != current.Direction {
		return
	}
	b.reinforced[tradeID] = true
	if _, err := b.deps.Submitter.Submit(ctx, b.entryRequest(cand)); err != nil {
		logger.Warnf("bot: reinforcement on %s failed: %v", cand.Asset, err)
		return
	}
	b.trace(ctx, cand, true, "reinforcement")
}

func (b *Bot) entryRequest(cand types.Candidate) engine.EntryRequest {
	return engine.EntryRequest{
		Asset:      cand.Asset,
		Direction:  cand.Direction,
		Stake:      b.stakeFor(cand.Asset),
		Payout:     cand.Payout,
		EntryPrice: cand.Price,
		Regime:     cand.Regime,
		Reason:     cand.Reason,
		Pattern:    cand.Pattern,
		Score:      cand.Score,
		Context:    cand.Context,
	}
}

func (b *Bot) tradableAssets() []string {
	out := make([]string, 0, len(b.deps.Trading.Assets))
	for _, asset := range b.deps.Trading.Assets {
		if p, ok := b.profile(asset); ok && !p.Active() {
			continue
		}
		out = append(out, asset)
	}
	return out
}

func (b *Bot) stakeFor(asset string) float64 {
	if p, ok := b.profile(asset); ok && p.Stake > 0 {
		return p.Stake
	}
	return b.deps.Trading.BaseStake
}

func (b *Bot) profileMinScore(asset string) (float64, bool) {
	if p, ok := b.profile(asset); ok && p.MinScore > 0 {
		return p.MinScore, true
	}
	return 0, false
}

func (b *Bot) profile(asset string) (config.Profile, bool) {
	if b.deps.Profiles == nil {
		return config.Profile{}, false
	}
	return b.deps.Profiles.Profile(strings.ToUpper(asset))
}

func (b *Bot) trace(ctx context.Context, cand types.Candidate, admitted bool, reason string) {
	if b.deps.Decisions == nil {
		return
	}
	prob, _ := cand.Context["prob_win"].(float64)
	err := b.deps.Decisions.Insert(ctx, decisionlog.Record{
		Asset:     cand.Asset,
		Direction: string(cand.Direction),
		Pattern:   cand.Pattern,
		Regime:    cand.Regime,
		Score:     cand.Score,
		Prob:      prob,
		Admitted:  admitted,
		Reason:    reason,
		Context:   cand.Context,
	})
	if err != nil {
		logger.Warnf("bot: decision trace not recorded: %v", err)
	}
}
