package notifier

import (
	"fmt"
	"strings"

	"tradinglions/internal/types"
)

const maxMessageLen = 3800

// OrderOpened renders the entry notification.
func OrderOpened(o *types.Order) string {
	if o == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🟢 *%s* %s\n", o.Asset, strings.ToUpper(string(o.Direction))))
	b.WriteString(fmt.Sprintf("Stake: %.2f | Payout: %.0f%% | %dm\n", o.Stake, o.Payout*100, o.Duration))
	if o.Pattern != "" {
		b.WriteString(fmt.Sprintf("Setup: %s (%s), score %.2f\n", o.Pattern, o.Regime, o.Score))
	}
	if o.EntryPrice > 0 {
		b.WriteString(fmt.Sprintf("Entry: %.5f\n", o.EntryPrice))
	}
	b.WriteString("Opened: " + o.OpenedAt.Format("15:04:05 MST"))
	return truncate(b.String())
}

// OrderSettled renders the result notification.
func OrderSettled(res types.Resolution) string {
	if res.Order == nil {
		return ""
	}
	icon := map[types.Outcome]string{
		types.OutcomeWin:  "✅",
		types.OutcomeLoss: "❌",
		types.OutcomeDraw: "➖",
	}[res.Outcome]
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s *%s* %s | %s\n", icon, res.Order.Asset,
		strings.ToUpper(string(res.Order.Direction)), res.Outcome))
	b.WriteString(fmt.Sprintf("P/L: %+.2f", res.Profit))
	if res.ClosePrice > 0 {
		b.WriteString(fmt.Sprintf(" | Close: %.5f", res.ClosePrice))
	}
	b.WriteString(fmt.Sprintf("\nHeld %.0fs, settled via %s", res.DurationSec(), res.Source))
	return truncate(b.String())
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxMessageLen {
		return s[:maxMessageLen] + "..."
	}
	return s
}
