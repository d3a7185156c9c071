package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradinglions/internal/types"
)

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]types.Outcome{
		"win":      types.OutcomeWin,
		"WON":      types.OutcomeWin,
		" success": types.OutcomeWin,
		"victory":  types.OutcomeWin,
		"loss":     types.OutcomeLoss,
		"loose":    types.OutcomeLoss,
		"lost":     types.OutcomeLoss,
		"failed":   types.OutcomeLoss,
		"defeat":   types.OutcomeLoss,
		"draw":     types.OutcomeDraw,
		"tie":      types.OutcomeDraw,
		"equal":    types.OutcomeDraw,
		"refund":   types.OutcomeDraw,
	}
	for label, want := range cases {
		got, ok := NormalizeLabel(label)
		assert.True(t, ok, "label %q", label)
		assert.Equal(t, want, got, "label %q", label)
	}

	for _, label := range []string{"", "  ", "pending", "unknown"} {
		_, ok := NormalizeLabel(label)
		assert.False(t, ok, "label %q", label)
	}
}

func TestDeriveOutcome(t *testing.T) {
	order := &types.Order{Stake: 10, Payout: 0.8}

	t.Run("win without profit evidence uses contract terms", func(t *testing.T) {
		outcome, profit := DeriveOutcome(order, "won", 0)
		assert.Equal(t, types.OutcomeWin, outcome)
		assert.Equal(t, 8.0, profit)
	})

	t.Run("loss without profit evidence loses the stake", func(t *testing.T) {
		outcome, profit := DeriveOutcome(order, "lost", 0)
		assert.Equal(t, types.OutcomeLoss, outcome)
		assert.Equal(t, -10.0, profit)
	})

	t.Run("reported profit beats contract default", func(t *testing.T) {
		outcome, profit := DeriveOutcome(order, "win", 7.5)
		assert.Equal(t, types.OutcomeWin, outcome)
		assert.Equal(t, 7.5, profit)
	})

	t.Run("loss label forces negative sign", func(t *testing.T) {
		outcome, profit := DeriveOutcome(order, "loose", 10)
		assert.Equal(t, types.OutcomeLoss, outcome)
		assert.Equal(t, -10.0, profit)
	})

	t.Run("missing label falls back to profit sign", func(t *testing.T) {
		outcome, profit := DeriveOutcome(order, "", 3.2)
		assert.Equal(t, types.OutcomeWin, outcome)
		assert.Equal(t, 3.2, profit)

		outcome, profit = DeriveOutcome(order, "", -4.1)
		assert.Equal(t, types.OutcomeLoss, outcome)
		assert.Equal(t, -4.1, profit)
	})

	t.Run("no evidence at all is a draw", func(t *testing.T) {
		outcome, profit := DeriveOutcome(order, "", 0)
		assert.Equal(t, types.OutcomeDraw, outcome)
		assert.Zero(t, profit)
	})

	t.Run("draw always realizes zero", func(t *testing.T) {
		outcome, profit := DeriveOutcome(order, "refund", 5)
		assert.Equal(t, types.OutcomeDraw, outcome)
		assert.Zero(t, profit)
	})

	t.Run("results round to cents", func(t *testing.T) {
		outcome, profit := DeriveOutcome(&types.Order{Stake: 1.0, Payout: 0.875}, "win", 0)
		assert.Equal(t, types.OutcomeWin, outcome)
		assert.Equal(t, 0.88, profit)
	})
}

func TestProfitEvidence(t *testing.T) {
	assert.Equal(t, 4.2, ProfitEvidence(4.2, 0, 0))
	assert.Equal(t, 8.0, ProfitEvidence(0, 18, 10))
	assert.Zero(t, ProfitEvidence(0, 0, 0))
}
