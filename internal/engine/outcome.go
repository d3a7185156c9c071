// Package engine tracks every submitted binary option from placement to a
// single terminal WIN/LOSS/DRAW resolution. Results arrive over two racing
// channels, broker push events and a polling fallback, and the registry
// guarantees each order settles at most once.
package engine

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"tradinglions/internal/types"
)

// NormalizeLabel maps the broker's outcome vocabulary onto the canonical
// outcomes. Unknown labels report ok=false.
func NormalizeLabel(label string) (types.Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "win", "won", "success", "victory":
		return types.OutcomeWin, true
	case "loss", "loose", "lost", "fail", "failed", "defeat", "losses":
		return types.OutcomeLoss, true
	case "draw", "tie", "equal", "refund", "refunded":
		return types.OutcomeDraw, true
	}
	return "", false
}

// DeriveOutcome settles the outcome and realized profit for an order. A
// recognized label wins over everything; otherwise the sign of the profit
// evidence decides. Profit falls back to the contract terms when the broker
// reported nothing usable: stake*payout on a win, -stake on a loss. A draw
// always realizes zero.
func DeriveOutcome(order *types.Order, label string, profit float64) (types.Outcome, float64) {
	outcome, ok := NormalizeLabel(label)
	if !ok {
		switch {
		case profit > 0:
			outcome = types.OutcomeWin
		case profit < 0:
			outcome = types.OutcomeLoss
		default:
			outcome = types.OutcomeDraw
		}
	}

	var stake, payout float64
	if order != nil {
		stake = order.Stake
		payout = order.Payout
	}

	switch outcome {
	case types.OutcomeWin:
		real := round2(math.Abs(profit))
		if real == 0 && stake > 0 {
			real = round2(stake * payout)
		}
		return types.OutcomeWin, real
	case types.OutcomeLoss:
		real := round2(-math.Abs(profit))
		if real == 0 && stake > 0 {
			real = round2(-stake)
		}
		return types.OutcomeLoss, real
	default:
		return types.OutcomeDraw, 0
	}
}

// ProfitEvidence extracts the usable profit figure from a settled entry:
// the reported profit amount when present, otherwise the distance between
// win amount and stake.
func ProfitEvidence(profitAmount, winAmount, amount float64) float64 {
	if profitAmount != 0 {
		return profitAmount
	}
	if winAmount != 0 || amount != 0 {
		return math.Abs(winAmount - amount)
	}
	return 0
}

func round2(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}
