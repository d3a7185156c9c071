package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func validate(c *Config) error {
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		return fmt.Errorf("app.log_level must be one of debug/info/warn/error, got %q", c.App.LogLevel)
	}
	if err := c.Broker.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Watcher.validate(); err != nil {
		return err
	}
	if err := c.Gate.validate(); err != nil {
		return err
	}
	if err := c.Telegram.validate(); err != nil {
		return err
	}
	return nil
}

func (b BrokerConfig) validate() error {
	if strings.TrimSpace(b.APIURL) == "" {
		return fmt.Errorf("broker.api_url is required")
	}
	if strings.TrimSpace(b.WSURL) == "" {
		return fmt.Errorf("broker.ws_url is required")
	}
	return nil
}

func (t TradingConfig) validate() error {
	if len(t.Assets) == 0 {
		return fmt.Errorf("trading.assets must list at least one asset")
	}
	for _, asset := range t.Assets {
		if strings.TrimSpace(asset) == "" {
			return fmt.Errorf("trading.assets contains an empty entry")
		}
	}
	if t.BaseStake <= 0 {
		return fmt.Errorf("trading.base_stake must be positive, got %v", t.BaseStake)
	}
	return nil
}

func (w WatcherConfig) validate() error {
	if w.MatchWindowSeconds < 0 {
		return fmt.Errorf("watcher.match_window_seconds cannot be negative")
	}
	if w.IdleSeconds <= 0 {
		return fmt.Errorf("watcher.idle_seconds must be positive")
	}
	return nil
}

func (g GateConfig) validate() error {
	if g.Enabled && strings.TrimSpace(g.URL) == "" {
		return fmt.Errorf("gate.url is required when the gate is enabled")
	}
	return nil
}

func (t TelegramConfig) validate() error {
	if t.Enabled && (strings.TrimSpace(t.Token) == "" || strings.TrimSpace(t.ChatID) == "") {
		return fmt.Errorf("telegram.token and telegram.chat_id are required when enabled")
	}
	return nil
}
