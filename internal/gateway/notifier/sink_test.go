package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradinglions/internal/types"
)

// slowNotifier holds every send until released.
type slowNotifier struct {
	release chan struct{}
	sent    chan string
}

func (s *slowNotifier) SendText(text string) error {
	<-s.release
	s.sent <- text
	return nil
}

func TestSinkNeverBlocksCaller(t *testing.T) {
	n := &slowNotifier{release: make(chan struct{}), sent: make(chan string, 2)}
	sink := Sink{Notifier: n}

	order := &types.Order{
		TradeID: "EURUSD-1", Asset: "EURUSD", Direction: types.DirectionCall,
		Stake: 1, Payout: 0.85, OpenedAt: time.Now(),
	}

	// LogClose runs on the websocket read goroutine; it must return while
	// the send is still stuck.
	done := make(chan struct{})
	go func() {
		assert.NoError(t, sink.LogClose(types.Resolution{
			Order: order, Outcome: types.OutcomeWin, Profit: 0.85,
			ClosedAt: order.OpenedAt.Add(time.Minute), Source: "push",
		}))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("LogClose blocked on the notifier")
	}

	close(n.release)
	select {
	case msg := <-n.sent:
		assert.Contains(t, msg, "WIN")
	case <-time.After(time.Second):
		t.Fatal("message never delivered")
	}
}

func TestSinkSkipsEmptyAndNil(t *testing.T) {
	require.NoError(t, Sink{}.LogOpen(&types.Order{Asset: "EURUSD"}))

	n := &slowNotifier{release: make(chan struct{}), sent: make(chan string, 1)}
	close(n.release)
	// A nil order renders no message, so nothing reaches the notifier.
	require.NoError(t, Sink{Notifier: n}.LogOpen(nil))
	select {
	case msg := <-n.sent:
		t.Fatalf("unexpected send: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
