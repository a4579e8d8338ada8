package notifications

import (
	"context"
	"sync"
	"time"

	"modulehub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInboundSize = 4096
	outboxSize     = 256
)

// Listener is one websocket connection receiving a user's chat events.
// Listeners never send chat messages over the socket; that goes through
// POST send_message.
type Listener struct {
	UserID uint

	hub    *Hub
	conn   *websocket.Conn
	outbox chan []byte
	done   chan struct{}
	stop   sync.Once
}

func newListener(hub *Hub, conn *websocket.Conn, userID uint) *Listener {
	return &Listener{
		UserID: userID,
		hub:    hub,
		conn:   conn,
		outbox: make(chan []byte, outboxSize),
		done:   make(chan struct{}),
	}
}

// Deliver queues payload for the socket. It never blocks: a full outbox or a
// stopped listener drops the payload and reports false.
func (l *Listener) Deliver(payload []byte) bool {
	select {
	case <-l.done:
		observability.WebSocketBackpressureDrops.WithLabelValues(hubName, "closed").Inc()
		return false
	default:
	}
	select {
	case l.outbox <- payload:
		return true
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(hubName, "full").Inc()
		return false
	}
}

func (l *Listener) halt() {
	l.stop.Do(func() { close(l.done) })
}

// Serve pumps queued events to the socket until the peer goes away or the
// hub shuts down, then removes the listener from its hub.
func (l *Listener) Serve() {
	go l.writeLoop()
	defer l.hub.Remove(l)

	l.conn.SetReadLimit(maxInboundSize)
	_ = l.conn.SetReadDeadline(time.Now().Add(pongWait))
	l.conn.SetPongHandler(func(string) error {
		return l.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := l.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l.hub.log.LogError(context.Background(), l.UserID, err, "read")
			}
			return
		}
	}
}

func (l *Listener) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = l.conn.Close()
	}()

	for {
		select {
		case <-l.done:
			_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = l.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case payload := <-l.outbox:
			_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ping.C:
			_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
