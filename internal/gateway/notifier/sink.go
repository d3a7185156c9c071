package notifier

import (
	"tradinglions/internal/logger"
	"tradinglions/internal/types"
)

// Sink adapts a TextNotifier to the journal sink contract, so trade events
// fan out to chat alongside the persistent sinks. Sends run on their own
// goroutine: the resolver settles on the websocket read goroutine, and chat
// retries must never stall it.
type Sink struct {
	Notifier TextNotifier
}

func (s Sink) LogOpen(o *types.Order) error {
	s.send(OrderOpened(o))
	return nil
}

func (s Sink) LogClose(res types.Resolution) error {
	s.send(OrderSettled(res))
	return nil
}

func (s Sink) send(msg string) {
	if s.Notifier == nil || msg == "" {
		return
	}
	go func() {
		if err := s.Notifier.SendText(msg); err != nil {
			logger.Warnf("notifier: send failed: %v", err)
		}
	}()
}
