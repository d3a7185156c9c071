// Package app wires configuration into running components.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tradinglions/internal/bot"
	"tradinglions/internal/config"
	"tradinglions/internal/decision"
	"tradinglions/internal/engine"
	"tradinglions/internal/gateway/binance"
	"tradinglions/internal/gateway/iqoption"
	"tradinglions/internal/gateway/notifier"
	"tradinglions/internal/journal"
	"tradinglions/internal/logger"
	"tradinglions/internal/market"
	"tradinglions/internal/scheduler"
	"tradinglions/internal/store/decisionlog"
	"tradinglions/internal/store/sqlite"
	apihttp "tradinglions/internal/transport/http"
)

const tickInterval = time.Second

// App holds every built component, started together by Run.
type App struct {
	cfg *config.Config

	client     *iqoption.Client
	stream     *iqoption.Stream
	collector  *market.Collector
	backfiller *binance.Backfiller

	registry *engine.Registry
	poller   *engine.Poller
	stats    *engine.Stats

	trades    *sqlite.TradeStore
	decisions *decisionlog.Store

	bot     *bot.Bot
	loop    *scheduler.Loop
	httpSrv *apihttp.Server
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	client, err := iqoption.NewClient(iqoption.Options{
		APIURL:         cfg.Broker.APIURL,
		Token:          cfg.Broker.Token,
		TimeoutSeconds: cfg.Broker.TimeoutSeconds,
	})
	if err != nil {
		return nil, err
	}

	trades, err := sqlite.NewTradeStore(cfg.Journal.TradesDB)
	if err != nil {
		return nil, fmt.Errorf("open trade store: %w", err)
	}
	decisions, err := decisionlog.New(cfg.Journal.DecisionsDB)
	if err != nil {
		return nil, fmt.Errorf("open decision log: %w", err)
	}
	csv, err := journal.NewCSVJournal(cfg.Journal.Dir)
	if err != nil {
		return nil, fmt.Errorf("open csv journal: %w", err)
	}
	sinks := journal.Multi{csv, trades}
	if cfg.Telegram.Enabled {
		sinks = append(sinks, notifier.Sink{
			Notifier: notifier.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID),
		})
	}

	registry := engine.NewRegistry()
	resolver := engine.NewResolver(sinks)
	stats := &engine.Stats{}
	resolver.OnResolved(stats.Record)

	submitter := engine.NewSubmitter(client, registry, sinks, cfg.Trading.ExpiryMinutes)
	poller := engine.NewPoller(registry, client, resolver, engine.PollerOptions{
		Idle:       cfg.Watcher.Idle(),
		Grace:      cfg.Watcher.Grace(),
		FetchLimit: cfg.Watcher.FetchLimit,
	})
	submitter.OnRegistered(poller.Trigger)

	push := engine.NewPushResolver(registry, resolver, cfg.Watcher.MatchWindow())
	stream := iqoption.NewStream(cfg.Broker.WSURL, iqoption.StreamHandlers{
		OnClosure:        push.HandleClosure,
		OnPositionChange: push.HandlePositionChange,
		// A fresh connection may have missed closures; sweep immediately.
		OnConnect: poller.Trigger,
	})

	collector := market.NewCollector()
	var backfiller *binance.Backfiller
	if cfg.Backfill.Enabled {
		backfiller = binance.NewBackfiller(cfg.Backfill.Symbols)
	}

	var gate decision.Gate
	if cfg.Gate.Enabled {
		gate = decision.NewHTTPGate(cfg.Gate.URL)
	}
	eng := decision.NewEngine(collector, gate, decision.Options{
		MinScore:      cfg.Signals.MinScore,
		MinProb:       cfg.Gate.MinProb,
		MinPayout:     cfg.Signals.MinPayout,
		MinHistory:    cfg.Signals.MinHistory,
		TrendSlopeMin: cfg.Signals.TrendSlopeMin,
		RangeLookback: cfg.Signals.RangeLookback,
		RangeTol:      cfg.Signals.RangeTol,
		EMAFast:       cfg.Signals.EMAFast,
		EMASlow:       cfg.Signals.EMASlow,
	})

	profiles, err := config.NewProfileRegistry(cfg.Profiles.Path)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	flight := &engine.Flight{}
	trader := bot.New(bot.Deps{
		Client:    client,
		Market:    client,
		Collector: collector,
		Engine:    eng,
		Submitter: submitter,
		Registry:  registry,
		Flight:    flight,
		Poller:    poller,
		Profiles:  profiles,
		Decisions: decisions,
		Trading:   cfg.Trading,
	})

	httpSrv := apihttp.NewServer(apihttp.ServerConfig{
		Addr:      cfg.App.HTTPAddr,
		Registry:  registry,
		Flight:    flight,
		Stats:     stats,
		Trades:    trades,
		Decisions: decisions,
		Market:    collector,
	})

	return &App{
		cfg:        cfg,
		client:     client,
		stream:     stream,
		collector:  collector,
		backfiller: backfiller,
		registry:   registry,
		poller:     poller,
		stats:      stats,
		trades:     trades,
		decisions:  decisions,
		bot:        trader,
		loop:       scheduler.NewLoop("bot", tickInterval),
		httpSrv:    httpSrv,
	}, nil
}

// Run starts every component and blocks until ctx ends or one fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	if a.backfiller != nil {
		a.backfiller.Seed(ctx, a.collector, a.cfg.Trading.Assets)
	}

	a.poller.Start()
	defer a.poller.Stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.httpSrv.Start(ctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return a.stream.Run(ctx)
	})
	group.Go(func() error {
		a.loop.Run(ctx, a.bot.Tick)
		return nil
	})

	logger.Infof("started: %d assets, broker=%s, http=%s",
		len(a.cfg.Trading.Assets), a.client.Name(), a.httpSrv.Addr())
	return group.Wait()
}

func (a *App) close() {
	if a.trades != nil {
		a.trades.Close()
	}
	if a.decisions != nil {
		a.decisions.Close()
	}
}
