package config

import (
	"strings"
	"time"
)

// Config is the full runtime configuration, merged from the main YAML file
// and any files it includes.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Broker   BrokerConfig   `yaml:"broker"`
	Trading  TradingConfig  `yaml:"trading"`
	Signals  SignalsConfig  `yaml:"signals"`
	Watcher  WatcherConfig  `yaml:"watcher"`
	Journal  JournalConfig  `yaml:"journal"`
	Gate     GateConfig     `yaml:"gate"`
	Telegram TelegramConfig `yaml:"telegram"`
	Backfill BackfillConfig `yaml:"backfill"`
	Profiles ProfilesConfig `yaml:"profiles"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`
	LogPath  string `yaml:"log_path"`
}

type BrokerConfig struct {
	Name           string `yaml:"name"`
	APIURL         string `yaml:"api_url"`
	WSURL          string `yaml:"ws_url"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (b BrokerConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

type TradingConfig struct {
	Assets        []string `yaml:"assets"`
	BaseStake     float64  `yaml:"base_stake"`
	Currency      string   `yaml:"currency"`
	ExpiryMinutes int      `yaml:"expiry_minutes"`
	Reinforce     bool     `yaml:"reinforce"`
}

type SignalsConfig struct {
	MinScore      float64 `yaml:"min_score"`
	MinPayout     float64 `yaml:"min_payout"`
	MinHistory    int     `yaml:"min_history"`
	TrendSlopeMin float64 `yaml:"trend_slope_min"`
	RangeLookback int     `yaml:"range_lookback"`
	RangeTol      float64 `yaml:"range_tolerance"`
	EMAFast       int     `yaml:"ema_fast"`
	EMASlow       int     `yaml:"ema_slow"`
}

type WatcherConfig struct {
	MatchWindowSeconds float64 `yaml:"match_window_seconds"`
	IdleSeconds        float64 `yaml:"idle_seconds"`
	GraceMillis        int     `yaml:"grace_millis"`
	FetchLimit         int     `yaml:"fetch_limit"`
}

func (w WatcherConfig) MatchWindow() time.Duration {
	return time.Duration(w.MatchWindowSeconds * float64(time.Second))
}

func (w WatcherConfig) Idle() time.Duration {
	return time.Duration(w.IdleSeconds * float64(time.Second))
}

func (w WatcherConfig) Grace() time.Duration {
	return time.Duration(w.GraceMillis) * time.Millisecond
}

type JournalConfig struct {
	Dir         string `yaml:"dir"`
	TradesDB    string `yaml:"trades_db"`
	DecisionsDB string `yaml:"decisions_db"`
}

type GateConfig struct {
	Enabled bool    `yaml:"enabled"`
	URL     string  `yaml:"url"`
	MinProb float64 `yaml:"min_prob"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

// BackfillConfig maps broker asset names to exchange symbols used to seed
// candle history before the broker stream warms up.
type BackfillConfig struct {
	Enabled bool              `yaml:"enabled"`
	Symbols map[string]string `yaml:"symbols"`
}

type ProfilesConfig struct {
	Path string `yaml:"path"`
}

// keySet records which config keys were present in the merged files, so
// defaults only fill what the operator left out.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

// fieldDefault is a single field's default rule.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
