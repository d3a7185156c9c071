package model

import "gorm.io/datatypes"

// TradeModel is the persisted row for one binary option, written when the
// order opens and completed when the result arrives.
type TradeModel struct {
	ID          int64          `gorm:"column:id;primaryKey"`
	TradeID     string         `gorm:"column:trade_id;uniqueIndex"`
	Asset       string         `gorm:"column:asset;index"`
	Direction   string         `gorm:"column:direction"`
	Stake       float64        `gorm:"column:stake"`
	Payout      float64        `gorm:"column:payout"`
	DurationMin int            `gorm:"column:duration_min"`
	BrokerRef   string         `gorm:"column:broker_ref;index"`
	EntryPrice  float64        `gorm:"column:entry_price"`
	Regime      string         `gorm:"column:regime"`
	Pattern     string         `gorm:"column:pattern"`
	Reason      string         `gorm:"column:reason"`
	Score       float64        `gorm:"column:score"`
	ContextJSON datatypes.JSON `gorm:"column:context_json;type:TEXT"`

	Outcome    string  `gorm:"column:outcome;index"`
	Profit     float64 `gorm:"column:profit"`
	ClosePrice float64 `gorm:"column:close_price"`
	Source     string  `gorm:"column:source"`

	OpenedAtUnix  int64 `gorm:"column:opened_at"`
	ClosedAtUnix  int64 `gorm:"column:closed_at"`
	CreatedAtUnix int64 `gorm:"column:created_at"`
	UpdatedAtUnix int64 `gorm:"column:updated_at"`
}

func (TradeModel) TableName() string { return "trades" }
