package frontend

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

const (
	writeWait        = 10 * time.Second
	clientBufferSize = 64
)

// Message is the envelope pushed to websocket clients
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// Hub fans new analysis results out to connected websocket clients
type Hub struct {
	clients    map[*wsClient]bool
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	stopCh     chan struct{}
	stopOnce   sync.Once
	count      atomic.Int32
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub accepting connections from allowedOrigins. An empty
// list or "*" accepts any origin.
func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	h := &Hub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		stopCh:     make(chan struct{}),
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(allowedOrigins) == 0 ||
				slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Run processes registrations and broadcasts until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int32(len(h.clients)))
			h.logger.Debug("WebSocket client connected", zap.Int("clients", len(h.clients)))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.count.Store(int32(len(h.clients)))
			h.logger.Debug("WebSocket client disconnected", zap.Int("clients", len(h.clients)))
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow consumer
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.count.Store(int32(len(h.clients)))
		case <-h.stopCh:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.count.Store(0)
			return
		}
	}
}

// Stop shuts the hub down and disconnects every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Broadcast queues a result for every connected client. It never blocks;
// results are dropped when the queue is full.
func (h *Hub) Broadcast(result core.AnalysisResult) {
	msg := Message{
		Type:      "result",
		Data:      NewResultView(result),
		Timestamp: time.Now().Unix(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal websocket message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Broadcast channel full, skipping message", zap.String("id", result.ID))
	}
}

// ServeWS upgrades the request and attaches the connection to the hub
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientBufferSize),
	}

	select {
	case h.register <- client:
	case <-h.stopCh:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump drains client frames so close and ping control messages are handled
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopCh:
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
