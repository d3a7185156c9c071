package engine

import (
	"sync"
	"time"

	"tradinglions/internal/types"
)

// Stats accumulates session results. Wire Record as a resolver hook.
type Stats struct {
	mu        sync.Mutex
	wins      int
	losses    int
	draws     int
	profit    float64
	lastClose time.Time
}

// StatsSnapshot is a point-in-time copy for reporting.
type StatsSnapshot struct {
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Draws     int       `json:"draws"`
	Resolved  int       `json:"resolved"`
	Profit    float64   `json:"profit"`
	WinRate   float64   `json:"win_rate"`
	LastClose time.Time `json:"last_close,omitempty"`
}

func (s *Stats) Record(res types.Resolution) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch res.Outcome {
	case types.OutcomeWin:
		s.wins++
	case types.OutcomeLoss:
		s.losses++
	default:
		s.draws++
	}
	s.profit += res.Profit
	if res.ClosedAt.After(s.lastClose) {
		s.lastClose = res.ClosedAt
	}
}

func (s *Stats) Snapshot() StatsSnapshot {
	if s == nil {
		return StatsSnapshot{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := StatsSnapshot{
		Wins:      s.wins,
		Losses:    s.losses,
		Draws:     s.draws,
		Resolved:  s.wins + s.losses + s.draws,
		Profit:    s.profit,
		LastClose: s.lastClose,
	}
	if decided := s.wins + s.losses; decided > 0 {
		snap.WinRate = float64(s.wins) / float64(decided)
	}
	return snap
}
