// Package stream fans live frames and generation stats out to websocket
// spectators.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/telemetry"
)

// Message types sent to spectators.
const (
	TypeHello      = "hello"
	TypeFrame      = "frame"
	TypeGeneration = "generation"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// Message is the JSON envelope of every spectator message.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hello is sent once on connect so a client can size its canvas.
type Hello struct {
	RunID   string  `json:"run_id"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	GroundY float64 `json:"ground_y"`
	BirdW   int     `json:"bird_w"`
	BirdH   int     `json:"bird_h"`
	PipeW   int     `json:"pipe_w"`
	PipeH   int     `json:"pipe_h"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Hub tracks connected spectators. Publishing never blocks the simulation:
// a client that falls behind loses messages rather than slowing the run.
type Hub struct {
	upgrader websocket.Upgrader
	hello    Hello

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	dropped atomic.Int64
}

// NewHub creates a hub that greets every client with hello.
func NewHub(hello Hello) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		hello:    hello,
		clients:  make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and streams to the client until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	hello, err := json.Marshal(Message{Type: TypeHello, Data: h.hello})
	if err != nil {
		conn.Close()
		return
	}
	c.send <- hello

	if !h.register(c) {
		conn.Close()
		return
	}
	slog.Info("spectator connected", "remote", r.RemoteAddr)

	go h.writeLoop(c)

	// Spectators only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(c)
	slog.Info("spectator disconnected", "remote", r.RemoteAddr)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			slog.Warn("spectator write failed", "error", err)
			h.unregister(c)
			// Drain so unregister's close ends the loop
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

// PublishFrame sends a frame to every client.
func (h *Hub) PublishFrame(f game.Frame) {
	h.broadcast(TypeFrame, f)
}

// PublishGeneration sends finished generation stats to every client.
func (h *Hub) PublishGeneration(stats telemetry.GenerationStats) {
	h.broadcast(TypeGeneration, stats)
}

func (h *Hub) broadcast(kind string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(Message{Type: kind, Data: data})
	if err != nil {
		slog.Error("failed to encode spectator message", "type", kind, "error", err)
		return
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

// Clients returns the number of connected spectators.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many messages were skipped for slow clients.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

// Serve listens on addr until ctx is canceled. The hub is mounted at /ws.
func Serve(ctx context.Context, addr string, h *Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		slog.Info("spectator stream listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("stream server: %w", err)
	case <-ctx.Done():
	}

	h.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stream shutdown: %w", err)
	}
	return nil
}
