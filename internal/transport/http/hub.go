package http

import (
	"sync"

	"github.com/rs/zerolog"

	"livequiz-service/internal/app"
)

// Hub is the live connection map; it implements app.Broadcaster. Each
// connection owns a buffered send channel drained by its writer goroutine,
// so Send never blocks the game core.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*client
	log   zerolog.Logger
}

type client struct {
	send chan app.Event
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		conns: make(map[string]*client),
		log:   logger,
	}
}

func (h *Hub) register(connID string) *client {
	c := &client{
		send: make(chan app.Event, 32),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.conns[connID] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	c, ok := h.conns[connID]
	if ok {
		delete(h.conns, connID)
	}
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// Send queues an event for one connection. Slow consumers drop events
// rather than stalling the session's critical path.
func (h *Hub) Send(connID string, evt app.Event) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- evt:
	default:
		h.log.Warn().Str("conn_id", connID).Str("event", string(evt.Type)).Msg("send buffer full, dropping event")
	}
}

// CloseConn force-disconnects a connection; queued events are flushed by
// the writer before the socket closes.
func (h *Hub) CloseConn(connID string) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if ok {
		c.close()
	}
}
