package polymarket

// ws.go — CLOB market-channel feed over websocket.
//
// One connection per market instance, subscribed to the two outcome tokens.
// A reader goroutine pumps frames into a buffered channel; Next selects on
// that channel against a timer, so a quiet market surfaces as a bounded
// no-op read that the runner uses to re-check the end condition and the
// connection itself never sees a read deadline expire. Liveness is kept by
// a ping ticker plus a pong-refreshed read deadline: a dead peer turns into
// a read error, which closes the channel and surfaces as a stream error.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alejandrodnm/hedgebot/internal/domain"
	"github.com/alejandrodnm/hedgebot/internal/ports"
)

const (
	defaultWSBase  = "wss://ws-subscriptions-clob.polymarket.com/ws/market"
	wsPingInterval = 20 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsTickBuffer   = 256
)

var errStreamClosed = errors.New("ws: stream closed")

// WSFeed implements ports.QuoteFeed over the CLOB market websocket.
type WSFeed struct {
	wsBase string
}

// NewWSFeed creates a feed. An empty URL falls back to production.
func NewWSFeed(wsBase string) *WSFeed {
	if wsBase == "" {
		wsBase = defaultWSBase
	}
	return &WSFeed{wsBase: wsBase}
}

// Subscribe dials the market channel, sends the subscription frame for the
// given token ids and starts the read and ping pumps.
func (f *WSFeed) Subscribe(ctx context.Context, tokenIDs []string) (ports.QuoteStream, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.wsBase, nil)
	if err != nil {
		return nil, fmt.Errorf("ws.Subscribe: dial: %w", err)
	}

	sub := wsSubscribe{Type: "market", AssetsIDs: tokenIDs}
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ws.Subscribe: send subscription: %w", err)
	}

	s := &wsStream{
		conn:  conn,
		ticks: make(chan domain.QuoteTick, wsTickBuffer),
		done:  make(chan struct{}),
	}
	go s.readPump()
	go s.pingPump()
	return s, nil
}

// wsStream is one open subscription. The read pump is the only reader of
// the connection; pings and the close frame go out via WriteControl, which
// gorilla allows concurrently with other writes.
type wsStream struct {
	conn      *websocket.Conn
	ticks     chan domain.QuoteTick
	done      chan struct{}
	err       error // written by the pump before ticks closes
	closeOnce sync.Once
}

// Next returns the next tick, or ok=false with a nil error when nothing
// arrives within timeout. A non-nil error means the stream is closed or
// broken and must be abandoned.
func (s *wsStream) Next(ctx context.Context, timeout time.Duration) (domain.QuoteTick, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case tick, ok := <-s.ticks:
		if !ok {
			if s.err != nil {
				return domain.QuoteTick{}, false, s.err
			}
			return domain.QuoteTick{}, false, errStreamClosed
		}
		return tick, true, nil
	case <-ctx.Done():
		return domain.QuoteTick{}, false, ctx.Err()
	case <-timer.C:
		return domain.QuoteTick{}, false, nil
	}
}

// Close closes the subscription. Idempotent.
func (s *wsStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		deadline := time.Now().Add(wsWriteTimeout)
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.conn.Close()
	})
	return nil
}

// readPump reads frames until the connection dies and feeds the tick
// channel. The read deadline only guards against a dead peer; it is pushed
// forward on every frame and every pong.
func (s *wsStream) readPump() {
	defer close(s.ticks)

	s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.err = fmt.Errorf("ws: read: %w", err)
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(wsPongWait))

		for _, tick := range parseFrame(data) {
			select {
			case s.ticks <- tick:
			case <-s.done:
				return
			}
		}
	}
}

// pingPump keeps the connection alive while the market is quiet.
func (s *wsStream) pingPump() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(wsWriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// parseFrame extracts the usable ticks from one raw frame. Malformed frames
// and non-market payloads yield nothing.
func parseFrame(data []byte) []domain.QuoteTick {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil
	}

	ticks := make([]domain.QuoteTick, 0, len(msg.PriceChanges))
	for _, pc := range msg.PriceChanges {
		if tick, ok := mapPriceChange(pc); ok {
			ticks = append(ticks, tick)
		}
	}
	return ticks
}
