package engine

import (
	"context"
	"sync"
	"time"

	"tradinglions/internal/gateway/broker"
	"tradinglions/internal/logger"
	"tradinglions/internal/pkg/convert"
)

const (
	defaultPollIdle    = 3 * time.Second
	defaultExpiryGrace = 500 * time.Millisecond
	defaultFetchLimit  = 50
	pollPassTimeout    = 5 * time.Second
)

// PollerOptions tune the fallback poller. Zero values take defaults.
type PollerOptions struct {
	// Idle is the longest the loop sleeps between passes without a trigger.
	Idle time.Duration
	// Grace shortens the expiry gate: entries are eligible from
	// expiry-Grace onward.
	Grace time.Duration
	// FetchLimit caps how many settled entries one pass requests.
	FetchLimit int
}

// Poller is the fallback resolution channel. It wakes on a trigger or after
// the idle timeout and sweeps pending orders against the broker's
// recently-closed list.
type Poller struct {
	registry *Registry
	client   broker.Client
	resolver *Resolver
	opts     PollerOptions

	wake   chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	now func() time.Time
}

func NewPoller(registry *Registry, client broker.Client, resolver *Resolver, opts PollerOptions) *Poller {
	if opts.Idle <= 0 {
		opts.Idle = defaultPollIdle
	}
	if opts.Grace <= 0 {
		opts.Grace = defaultExpiryGrace
	}
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = defaultFetchLimit
	}
	return &Poller{
		registry: registry,
		client:   client,
		resolver: resolver,
		opts:     opts,
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
}

func (p *Poller) Start() {
	if p == nil {
		return
	}
	p.wg.Add(1)
	go p.loop()
}

func (p *Poller) Stop() {
	if p == nil {
		return
	}
	p.once.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

// Trigger requests a pass without blocking. Triggers arriving while one is
// already queued coalesce.
func (p *Poller) Trigger() {
	if p == nil {
		return
	}
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Poller) loop() {
	defer p.wg.Done()
	timer := time.NewTimer(p.opts.Idle)
	defer timer.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-p.wake:
		case <-timer.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), pollPassTimeout)
		if err := p.RunPass(ctx); err != nil {
			logger.Warnf("poller: pass aborted: %v", err)
		}
		cancel()
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(p.opts.Idle)
	}
}

// RunPass executes one complete fallback sweep synchronously. The bot's tick
// loop uses Trigger instead; RunPass exists for shutdown drains and tests.
func (p *Poller) RunPass(ctx context.Context) error {
	if p == nil || p.registry == nil || p.client == nil {
		return nil
	}
	snapshot := p.registry.Snapshot()
	if len(snapshot) == 0 {
		return nil
	}
	now := p.now()

	// One closed-list fetch serves the whole pass, and only happens once
	// some entry actually needs it.
	var closed []broker.ClosedOption
	fetched := false

	for i := range snapshot {
		entry := snapshot[i]
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.ExpiresAt.IsZero() && now.Before(entry.ExpiresAt.Add(-p.opts.Grace)) {
			logger.Debugf("poller: %s not yet expired, skipping", entry.TradeID)
			continue
		}

		ref := entry.BrokerRef
		if ref == "" {
			ref = convert.String(convert.Unwrap(entry.RawRef))
			if ref != "" {
				p.registry.SetRef(entry.TradeID, ref)
			}
		}
		if ref == "" {
			logger.Debugf("poller: %s has no broker reference, skipping", entry.TradeID)
			continue
		}

		if !fetched {
			var err error
			closed, err = p.client.RecentlyClosed(ctx, p.opts.FetchLimit)
			if err != nil {
				return err
			}
			fetched = true
		}

		match, ok := findClosed(closed, ref)
		if !ok {
			// An entry the broker never reports stays pending. It keeps
			// being swept every pass and stays visible through Snapshot
			// and OldestOpen; guessing a terminal outcome for it would
			// poison the journal.
			logger.Debugf("poller: %s not in closed list yet", entry.TradeID)
			continue
		}
		p.settleFromClosed(entry.TradeID, match, now)
	}
	return nil
}

func (p *Poller) settleFromClosed(tradeID string, match broker.ClosedOption, now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("poller: settle %s panicked: %v", tradeID, rec)
		}
	}()
	order, ok := p.registry.ResolveAndRemove(tradeID)
	if !ok {
		// Push channel won the race.
		return
	}
	profit := ProfitEvidence(match.ProfitAmount, match.WinAmount, match.Amount)
	closedAt := now
	if match.ClosedAt > 0 {
		closedAt = time.Unix(match.ClosedAt, 0)
	}
	p.resolver.Settle(order, match.Result, profit, match.Value, closedAt, "poll")
}

func findClosed(entries []broker.ClosedOption, ref string) (broker.ClosedOption, bool) {
	for _, entry := range entries {
		if entry.Ref() == ref {
			return entry, true
		}
	}
	return broker.ClosedOption{}, false
}
