// Package sqlite persists trades through Gorm on a WAL-mode SQLite file.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"tradinglions/internal/store/model"
	"tradinglions/internal/types"
)

// TradeStore records opened and settled trades. It satisfies journal.Sink.
type TradeStore struct {
	db *gorm.DB
}

func NewTradeStore(path string) (*TradeStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("trade store: path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.TradeModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: a little parallelism for HTTP reads, low lock contention.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &TradeStore{db: db}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *TradeStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LogOpen upserts the opening half of a trade, keyed by trade id.
func (s *TradeStore) LogOpen(o *types.Order) error {
	if s == nil || s.db == nil || o == nil {
		return nil
	}
	row := newTradeRow(o)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "trade_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"broker_ref", "entry_price", "payout", "context_json", "updated_at",
		}),
	}).Create(&row).Error
}

// LogClose fills in the settled half. A close for a trade that was never
// logged open inserts a full row so nothing is lost.
func (s *TradeStore) LogClose(res types.Resolution) error {
	if s == nil || s.db == nil || res.Order == nil {
		return nil
	}
	now := time.Now().Unix()
	updates := map[string]any{
		"outcome":     string(res.Outcome),
		"profit":      res.Profit,
		"close_price": res.ClosePrice,
		"source":      res.Source,
		"closed_at":   res.ClosedAt.Unix(),
		"updated_at":  now,
	}
	tx := s.db.Model(&model.TradeModel{}).
		Where("trade_id = ?", res.Order.TradeID).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected > 0 {
		return nil
	}
	row := newTradeRow(res.Order)
	row.Outcome = string(res.Outcome)
	row.Profit = res.Profit
	row.ClosePrice = res.ClosePrice
	row.Source = res.Source
	row.ClosedAtUnix = res.ClosedAt.Unix()
	return s.db.Create(&row).Error
}

func newTradeRow(o *types.Order) model.TradeModel {
	now := time.Now().Unix()
	var ctx datatypes.JSON
	if len(o.Context) > 0 {
		if raw, err := json.Marshal(o.Context); err == nil {
			ctx = raw
		}
	}
	return model.TradeModel{
		TradeID:       o.TradeID,
		Asset:         o.Asset,
		Direction:     string(o.Direction),
		Stake:         o.Stake,
		Payout:        o.Payout,
		DurationMin:   o.Duration,
		BrokerRef:     o.BrokerRef,
		EntryPrice:    o.EntryPrice,
		Regime:        o.Regime,
		Pattern:       o.Pattern,
		Reason:        o.Reason,
		Score:         o.Score,
		ContextJSON:   ctx,
		OpenedAtUnix:  o.OpenedAt.Unix(),
		CreatedAtUnix: now,
		UpdatedAtUnix: now,
	}
}

// Recent returns the latest trades, newest first.
func (s *TradeStore) Recent(ctx context.Context, limit int) ([]model.TradeModel, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	var rows []model.TradeModel
	err := s.db.WithContext(ctx).
		Order("opened_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Summary aggregates settled trades.
type Summary struct {
	Total     int64   `json:"total"`
	Wins      int64   `json:"wins"`
	Losses    int64   `json:"losses"`
	Draws     int64   `json:"draws"`
	NetProfit float64 `json:"net_profit"`
}

func (s *TradeStore) Summarize(ctx context.Context) (Summary, error) {
	if s == nil || s.db == nil {
		return Summary{}, nil
	}
	var out Summary
	row := s.db.WithContext(ctx).Model(&model.TradeModel{}).
		Where("outcome <> ''").
		Select(
			"COUNT(*) AS total",
			"SUM(CASE WHEN outcome = 'WIN' THEN 1 ELSE 0 END) AS wins",
			"SUM(CASE WHEN outcome = 'LOSS' THEN 1 ELSE 0 END) AS losses",
			"SUM(CASE WHEN outcome = 'DRAW' THEN 1 ELSE 0 END) AS draws",
			"COALESCE(SUM(profit), 0) AS net_profit",
		).Row()
	if err := row.Scan(&out.Total, &out.Wins, &out.Losses, &out.Draws, &out.NetProfit); err != nil {
		return Summary{}, err
	}
	return out, nil
}

// ProfitPoint is one settled trade on the cumulative profit curve.
type ProfitPoint struct {
	ClosedAt   int64   `json:"closed_at"`
	Asset      string  `json:"asset"`
	Profit     float64 `json:"profit"`
	Cumulative float64 `json:"cumulative"`
}

// ProfitSeries returns settled trades in close order with a running total.
func (s *TradeStore) ProfitSeries(ctx context.Context) ([]ProfitPoint, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []model.TradeModel
	err := s.db.WithContext(ctx).
		Where("outcome <> ''").
		Order("closed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	points := make([]ProfitPoint, 0, len(rows))
	var total float64
	for _, r := range rows {
		total += r.Profit
		points = append(points, ProfitPoint{
			ClosedAt:   r.ClosedAtUnix,
			Asset:      r.Asset,
			Profit:     r.Profit,
			Cumulative: total,
		})
	}
	return points, nil
}
