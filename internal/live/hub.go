// Package live streams car snapshots over a websocket as the checker
// replays a trace, mirroring the teacher's WebSocket-only status server but
// pushed from the replay loop rather than polled from a ticker: the
// checker already knows the instant a car's state changes, so there is
// nothing to poll.
package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/elevio/tracecheck/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	breakerMaxFailures  = 3
	breakerResetTimeout = 5 * time.Second
	breakerHalfOpen     = 1
)

type client struct {
	conn    *websocket.Conn
	breaker *CircuitBreaker
	cancel  context.CancelFunc
}

// Hub broadcasts CarSnapshot frames to every connected /ws/trace client. A
// Hub is safe for concurrent use: Broadcast is called from the goroutine
// draining the checker's snapshot channel while clients attach and detach
// from HTTP handler goroutines.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}

	server *http.Server
}

// NewHub builds a Hub listening on addr, exposing a single /ws/trace route.
func NewHub(addr string, logger *slog.Logger) *Hub {
	h := &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/trace", h.handleConn)
	h.server = &http.Server{Addr: addr, Handler: mux}

	return h
}

// Handler returns the Hub's HTTP handler, exposed separately from Start so
// tests can drive it through an httptest.Server instead of binding a real
// listener.
func (h *Hub) Handler() http.Handler {
	return h.server.Handler
}

// Start begins serving websocket connections; it blocks until Shutdown is
// called or the listener fails.
func (h *Hub) Start() error {
	h.logger.Info("starting live monitor", slog.String("addr", h.server.Addr))
	err := h.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown closes every client connection and stops the HTTP server.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	for c := range h.clients {
		c.cancel()
		_ = c.conn.Close()
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	return h.server.Shutdown(ctx)
}

// Broadcast pushes a snapshot to every attached client, dropping it for any
// client whose breaker is currently open.
func (h *Hub) Broadcast(snap domain.CarSnapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		c := c
		err := c.breaker.Execute(context.Background(), func() error {
			if dErr := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); dErr != nil {
				return dErr
			}
			return c.conn.WriteJSON(snap)
		})
		if err != nil {
			h.logger.Warn("dropping live monitor frame", slog.String("error", err.Error()))
		}
	}
}

// BroadcastFinal sends the run's closing summary frame, then clients may
// disconnect on their own.
func (h *Hub) BroadcastFinal(final domain.RunSnapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(final); err != nil {
			h.logger.Warn("failed to send final frame", slog.String("error", err.Error()))
		}
	}
}

func (h *Hub) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &client{
		conn:    conn,
		breaker: NewCircuitBreaker(breakerMaxFailures, breakerResetTimeout, breakerHalfOpen),
		cancel:  cancel,
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("live monitor client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		_ = conn.Close()
	}()

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutdown"),
				time.Now().Add(writeWait))
			return
		case <-pingTicker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
