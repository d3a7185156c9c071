// Package scheduler provides the tick loop and candle-boundary alignment.
package scheduler

import (
	"context"
	"time"

	"tradinglions/internal/logger"
	"tradinglions/internal/types"
)

// Loop runs task every interval until ctx is canceled. The first run happens
// after one interval, matching a market loop that needs warm state first.
type Loop struct {
	Name     string
	Interval time.Duration

	nowFn func() time.Time
}

func NewLoop(name string, interval time.Duration) *Loop {
	return &Loop{Name: name, Interval: interval, nowFn: time.Now}
}

func (l *Loop) Run(ctx context.Context, task func(context.Context)) {
	if l == nil || task == nil {
		return
	}
	if l.Interval <= 0 {
		logger.Warnf("loop %s: invalid interval %s, exit", l.Name, l.Interval)
		return
	}
	logger.Infof("loop %s: started, interval=%s", l.Name, l.Interval)
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("loop %s: stopped", l.Name)
			return
		case <-ticker.C:
			task(ctx)
		}
	}
}

// NextCandleOpen returns the first candle boundary strictly after now.
func NextCandleOpen(now time.Time, tf types.Timeframe) time.Time {
	step := time.Duration(tf) * time.Second
	return now.Truncate(step).Add(step)
}

// WaitCandleOpen blocks until the next candle boundary or ctx cancellation.
func WaitCandleOpen(ctx context.Context, tf types.Timeframe) error {
	wait := time.Until(NextCandleOpen(time.Now(), tf))
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
