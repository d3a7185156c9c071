package config

import "strings"

const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":9980"
	defaultAppLogPath  = "data/logs/tradinglions.log"

	defaultBrokerName    = "iqoption"
	defaultBrokerTimeout = 15

	defaultBaseStake     = 1.0
	defaultCurrency      = "USD"
	defaultExpiryMinutes = 1

	defaultMinScore      = 0.55
	defaultMinPayout     = 0.70
	defaultMinHistory    = 60
	defaultTrendSlopeMin = 0.3
	defaultRangeLookback = 40
	defaultRangeTol      = 0.35
	defaultEMAFast       = 20
	defaultEMASlow       = 40

	defaultMatchWindowSeconds = 2.0
	defaultIdleSeconds        = 3.0
	defaultGraceMillis        = 500
	defaultFetchLimit         = 50

	defaultJournalDir  = "data/journal"
	defaultTradesDB    = "data/trades.db"
	defaultDecisionsDB = "data/decisions.db"

	defaultGateMinProb  = 0.55
	defaultProfilesPath = "configs/profiles.yaml"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Broker.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.Signals.applyDefaults(keys)
	c.Watcher.applyDefaults(keys)
	c.Journal.applyDefaults(keys)
	c.Gate.applyDefaults(keys)
	c.Profiles.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (b *BrokerConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("broker.name", &b.Name, defaultBrokerName),
		intFieldDefault("broker.timeout_seconds", &b.TimeoutSeconds, defaultBrokerTimeout),
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("trading.base_stake", &t.BaseStake, defaultBaseStake),
		stringFieldDefault("trading.currency", &t.Currency, defaultCurrency),
		intFieldDefault("trading.expiry_minutes", &t.ExpiryMinutes, defaultExpiryMinutes),
	)
}

func (s *SignalsConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("signals.min_score", &s.MinScore, defaultMinScore),
		floatFieldDefault("signals.min_payout", &s.MinPayout, defaultMinPayout),
		intFieldDefault("signals.min_history", &s.MinHistory, defaultMinHistory),
		floatFieldDefault("signals.trend_slope_min", &s.TrendSlopeMin, defaultTrendSlopeMin),
		intFieldDefault("signals.range_lookback", &s.RangeLookback, defaultRangeLookback),
		floatFieldDefault("signals.range_tolerance", &s.RangeTol, defaultRangeTol),
		intFieldDefault("signals.ema_fast", &s.EMAFast, defaultEMAFast),
		intFieldDefault("signals.ema_slow", &s.EMASlow, defaultEMASlow),
	)
}

func (w *WatcherConfig) applyDefaults(keys keySet) {
	if w == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("watcher.match_window_seconds", &w.MatchWindowSeconds, defaultMatchWindowSeconds),
		floatFieldDefault("watcher.idle_seconds", &w.IdleSeconds, defaultIdleSeconds),
		intFieldDefault("watcher.grace_millis", &w.GraceMillis, defaultGraceMillis),
		intFieldDefault("watcher.fetch_limit", &w.FetchLimit, defaultFetchLimit),
	)
}

func (j *JournalConfig) applyDefaults(keys keySet) {
	if j == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("journal.dir", &j.Dir, defaultJournalDir),
		stringFieldDefault("journal.trades_db", &j.TradesDB, defaultTradesDB),
		stringFieldDefault("journal.decisions_db", &j.DecisionsDB, defaultDecisionsDB),
	)
}

func (g *GateConfig) applyDefaults(keys keySet) {
	if g == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("gate.min_prob", &g.MinProb, defaultGateMinProb),
	)
}

func (p *ProfilesConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("profiles.path", &p.Path, defaultProfilesPath),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return strings.TrimSpace(*target) == "" },
		apply: func() { *target = def },
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}
