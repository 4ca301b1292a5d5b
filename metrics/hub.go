package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types sent to clients.
const (
	MsgFPS   = "fps"
	MsgState = "state"
)

// Message is one JSON text frame.
type Message struct {
	Type    string  `json:"type"`
	FPS     float64 `json:"fps,omitempty"`
	From    string  `json:"from,omitempty"`
	To      string  `json:"to,omitempty"`
	Session string  `json:"session,omitempty"`
}

const sendQueue = 16

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, sendQueue),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Hub broadcasts frame rate and state changes to websocket clients. A
// client whose queue is full is disconnected so a stalled reader never
// slows the publisher.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool
	fps     *Message // latest of each, sent on connect
	state   *Message
	server  *http.Server
}

// NewHub returns a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// Local debugging endpoint; any origin may watch.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

// ServeHTTP upgrades the request and keeps the client until it hangs up.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	c := h.addClient(conn)
	defer h.removeClient(c)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) addClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	for _, m := range []*Message{h.state, h.fps} {
		if m == nil {
			continue
		}
		data, _ := json.Marshal(m)
		select {
		case c.send <- data:
		default:
		}
	}
	return c
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// PublishFPS sends a frame rate measurement.
func (h *Hub) PublishFPS(fps float64) {
	m := &Message{Type: MsgFPS, FPS: fps}
	h.mu.Lock()
	h.fps = m
	h.mu.Unlock()
	h.broadcast(m)
}

// PublishState sends a state transition of the given session.
func (h *Hub) PublishState(session, from, to string) {
	m := &Message{Type: MsgState, Session: session, From: from, To: to}
	h.mu.Lock()
	h.state = m
	h.mu.Unlock()
	h.broadcast(m)
}

func (h *Hub) broadcast(m *Message) {
	data, err := json.Marshal(m)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	// Sends happen under the read lock so they never race a close, which
	// takes the write lock.
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Printf("ws client too slow, disconnecting")
		h.removeClient(c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Listen serves the hub at /ws on addr in the background and returns the
// bound address.
func (h *Hub) Listen(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	h.mu.Lock()
	h.server = srv
	h.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("ws server: %v", err)
		}
	}()
	log.Printf("WebSocket stats at ws://%s/ws", ln.Addr())
	return ln.Addr().String(), nil
}

// Close stops the listener and disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	srv := h.server
	h.server = nil
	clients := h.clients
	h.clients = make(map[*client]bool)
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
