// Package journal persists the trade lifecycle: one OPEN record at
// submission and exactly one CLOSE record at resolution.
package journal

import (
	"tradinglions/internal/logger"
	"tradinglions/internal/types"
)

// Sink receives lifecycle records. Implementations must tolerate partial
// data; a sink failure never blocks trading.
type Sink interface {
	LogOpen(order *types.Order) error
	LogClose(res types.Resolution) error
}

// Multi fans records out to several sinks, best effort. A failing sink is
// logged and skipped so the remaining sinks still receive the record.
type Multi []Sink

func (m Multi) LogOpen(order *types.Order) error {
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.LogOpen(order); err != nil {
			logger.Warnf("journal: open record dropped by sink: %v", err)
		}
	}
	return nil
}

func (m Multi) LogClose(res types.Resolution) error {
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.LogClose(res); err != nil {
			logger.Warnf("journal: close record dropped by sink: %v", err)
		}
	}
	return nil
}
