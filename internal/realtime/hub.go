// Package realtime streams order change events to connected admin views over
// WebSocket, replacing the fixed-interval store polling the admin UI would
// otherwise need. Plain GET polling of the orders list remains available as
// a fallback for clients without WebSocket support.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/narracraft/storefront/internal/domain/order"
)

// OrderEvent is the wire payload for one order change.
type OrderEvent struct {
	Kind    string       `json:"kind"` // placed | status_changed | removed
	OrderID string       `json:"orderId"`
	Status  order.Status `json:"status,omitempty"`
	Total   string       `json:"total,omitempty"`
	At      time.Time    `json:"at"`
}

// Hub fans order events out to connected WebSocket clients. A slow or dead
// client is dropped rather than allowed to stall the broadcast.
type Hub struct {
	lg       *zap.Logger
	upgrader websocket.Upgrader

	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub constructs a Hub. Run must be started before events are published.
func NewHub(lg *zap.Logger) *Hub {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Hub{
		lg: lg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The admin surface trusts its clients (no auth in scope), so
			// cross-origin upgrades are accepted like the rest of the API.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 64),
		conns:      make(map[*websocket.Conn]struct{}),
	}
}

// Run processes register/unregister/broadcast events until ctx is cancelled,
// then closes every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.conns {
				_ = conn.Close()
				delete(h.conns, conn)
			}
			h.mu.Unlock()
			return
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn] = struct{}{}
			h.mu.Unlock()
		case conn := <-h.unregister:
			h.mu.Lock()
			delete(h.conns, conn)
			h.mu.Unlock()
			_ = conn.Close()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.conns {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					_ = conn.Close()
					delete(h.conns, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// PublishOrderEvent broadcasts an order change. It never blocks the caller:
// when the broadcast buffer is full the event is dropped and logged, since a
// missed event only delays the admin view by one poll interval.
func (h *Hub) PublishOrderEvent(kind string, rec *order.Record) {
	evt := OrderEvent{
		Kind:    kind,
		OrderID: rec.ID,
		Status:  rec.Status,
		Total:   rec.Pricing.Total.StringFixed(2),
		At:      time.Now().UTC(),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		h.lg.Error("marshal order event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.lg.Warn("order event dropped, broadcast buffer full", zap.String("order_id", rec.ID))
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// ServeHTTP upgrades the request to a WebSocket and registers the client.
// The read loop exists only to detect disconnects; clients are not expected
// to send anything.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.lg.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.register <- conn

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
