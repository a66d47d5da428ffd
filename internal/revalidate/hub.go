// Package revalidate tells readers that a path's data changed: it drops the cached read
// results for the path and pushes a "revalidate" event to connected websocket clients.
package revalidate

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/JustinTDCT/OralVault/internal/cache"
)

// Notifier is called after every successful write with the listing paths it affects.
// Failures are logged, never returned: the write already happened.
type Notifier interface {
	Revalidate(ctx context.Context, paths ...string)
}

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	store   cache.Store
	origins []string
	logger  *zap.Logger
}

func NewHub(store cache.Store, origins []string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*client]bool),
		store:   store,
		origins: origins,
		logger:  logger,
	}
}

func (h *Hub) Revalidate(ctx context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}
	if h.store != nil {
		for _, p := range paths {
			if err := h.store.DeletePrefix(ctx, cache.PathKey(p, "")); err != nil {
				h.logger.Warn("cache invalidation failed", zap.String("path", p), zap.Error(err))
			}
		}
	}
	h.Broadcast("revalidate", map[string]interface{}{"paths": paths})
}

// Broadcast queues the event for every client. A client whose buffer is full misses it.
func (h *Hub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		h.logger.Error("marshal broadcast", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("dropped event for slow client", zap.String("client", c.id))
		}
	}
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Their handlers return once the writers drain.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Warn("websocket accept", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 64),
	}
	h.addClient(c)
	h.logger.Debug("websocket client connected", zap.String("client", c.id))

	ctx := r.Context()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range c.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}()

	// Clients never send anything meaningful; reading only detects the close.
	readCtx := conn.CloseRead(ctx)
	select {
	case <-readCtx.Done():
	case <-done:
	}

	h.removeClient(c)
	<-done
	conn.Close(websocket.StatusNormalClosure, "")
	h.logger.Debug("websocket client disconnected", zap.String("client", c.id))
}
