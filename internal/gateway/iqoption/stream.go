package iqoption

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"tradinglions/internal/logger"

	"tradinglions/internal/gateway/broker"
)

const (
	streamReadLimit    = 1 << 20
	streamPingInterval = 20 * time.Second
	streamPongWait     = 60 * time.Second
	reconnectMin       = time.Second
	reconnectMax       = 30 * time.Second
)

// StreamHandlers receive decoded push events. Handlers run on the read
// goroutine and must not block.
type StreamHandlers struct {
	OnClosure        func(broker.ClosureEvent)
	OnPositionChange func(broker.PositionChange)
	// OnConnect fires after every (re)connect, before the first read.
	OnConnect func()
}

// Stream consumes the bridge's websocket and dispatches broker push events.
// It reconnects with exponential backoff until the context ends.
type Stream struct {
	url      string
	dialer   *websocket.Dialer
	handlers StreamHandlers
}

func NewStream(url string, handlers StreamHandlers) *Stream {
	return &Stream{
		url:      url,
		dialer:   websocket.DefaultDialer,
		handlers: handlers,
	}
}

// Run blocks until ctx is done. Connection failures are retried, never
// returned: losing the push channel only degrades resolution to the poller.
func (s *Stream) Run(ctx context.Context) error {
	if s == nil || s.url == "" {
		<-ctx.Done()
		return nil
	}
	backoff := reconnectMin
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			logger.Warnf("stream: dial %s: %v (retry in %s)", s.url, err, backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > reconnectMax {
				backoff = reconnectMax
			}
			continue
		}
		backoff = reconnectMin
		logger.Infof("stream: connected to %s", s.url)
		if s.handlers.OnConnect != nil {
			s.handlers.OnConnect()
		}
		s.readLoop(ctx, conn)
		_ = conn.Close()
	}
}

func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(streamPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				logger.Warnf("stream: read: %v", err)
			}
			return
		}
		s.dispatch(raw)
	}
}

func (s *Stream) dispatch(raw []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("stream: handler panic: %v", rec)
		}
	}()
	name, msg, ok := ParseFrame(raw)
	if !ok {
		return
	}
	switch name {
	case frameOptionClosed:
		if s.handlers.OnClosure != nil {
			s.handlers.OnClosure(ParseClosure(msg))
		}
	case framePositionChanged:
		if s.handlers.OnPositionChange != nil {
			s.handlers.OnPositionChange(ParsePositionChange(msg))
		}
	}
}
