package notifications

import (
	"context"
	"errors"
	"sync"

	"modulehub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	hubName = "chat"

	maxListenersPerUser = 12
	maxListeners        = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
)

// Hub tracks the chat listeners of every connected user.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint]map[*Listener]struct{}
	total     int
	log       *observability.WSLogger
}

// NewHub returns an empty chat hub.
func NewHub() *Hub {
	return &Hub{
		listeners: make(map[uint]map[*Listener]struct{}),
		log:       observability.NewWSLogger(hubName),
	}
}

// Name identifies the hub in logs and metrics.
func (h *Hub) Name() string { return hubName }

// Join adds a listener for userID on conn.
func (h *Hub) Join(userID uint, conn *websocket.Conn) (*Listener, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.total >= maxListeners {
		return nil, ErrServerFull
	}
	set := h.listeners[userID]
	if len(set) >= maxListenersPerUser {
		return nil, ErrUserFull
	}
	if set == nil {
		set = make(map[*Listener]struct{})
		h.listeners[userID] = set
	}

	l := newListener(h, conn, userID)
	set[l] = struct{}{}
	h.total++
	observability.WebSocketConnections.WithLabelValues(hubName).Inc()
	h.log.LogConnect(context.Background(), userID)
	return l, nil
}

// Remove stops l and forgets it. Removing twice is harmless.
func (h *Hub) Remove(l *Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.listeners[l.UserID]
	if _, ok := set[l]; !ok {
		return
	}
	delete(set, l)
	if len(set) == 0 {
		delete(h.listeners, l.UserID)
	}
	h.total--
	l.halt()
	observability.WebSocketConnections.WithLabelValues(hubName).Dec()
	h.log.LogDisconnect(context.Background(), l.UserID, "closed")
}

// Deliver hands payload to every listener of userID and returns how many
// accepted it.
func (h *Hub) Deliver(userID uint, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for l := range h.listeners[userID] {
		if l.Deliver(payload) {
			n++
		}
	}
	return n
}

// Listening returns the number of open listeners of userID.
func (h *Hub) Listening(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[userID])
}

// Subscribe forwards every event published on a user channel to that user's
// listeners until ctx is cancelled.
func (h *Hub) Subscribe(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		userID, ok := parseUserChannel(channel)
		if !ok {
			observability.GlobalLogger.Warn("invalid notification channel", "channel", channel)
			return
		}
		h.Deliver(userID, []byte(payload))
	})
}

// Shutdown stops every listener. Their write loops send a going-away close
// frame before closing the socket.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, set := range h.listeners {
		for l := range set {
			l.halt()
		}
	}
	observability.WebSocketConnections.WithLabelValues(hubName).Sub(float64(h.total))
	h.listeners = make(map[uint]map[*Listener]struct{})
	h.total = 0
	return nil
}
