package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"pong-game/internal/models"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// Hub maintains the live connections, at most one per player id. A new
// registration for an already-connected id replaces and closes the old
// connection.
type Hub struct {
	// Map of playerId -> connection
	clients map[string]*Client
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	// Called from the Run loop when a player's connection is gone for
	// good (not replaced by a newer one).
	onDisconnect func(playerID string)
}

type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	playerID    string
	displayName string
	send        chan []byte

	// Guards send against concurrent closes: timers and the engines
	// deliver from their own goroutines while the Run loop may be
	// replacing this connection.
	sendMu sync.Mutex
	closed bool
}

// trySend queues data for the write pump. Reports false only when the
// buffer is full; a closed client swallows the message.
func (c *Client) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend marks the client closed before closing the channel so
// concurrent trySend calls cannot hit a closed channel.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.sendMu.Unlock()
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetDisconnectHandler wires the teardown callback. Must be called
// before Run.
func (h *Hub) SetDisconnectHandler(fn func(playerID string)) {
	h.onDisconnect = fn
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.playerID]; ok {
				old.closeSend()
				old.conn.Close()
				log.Printf("Replacing connection for player %s", client.playerID)
			}
			h.clients[client.playerID] = client
			h.mu.Unlock()
			log.Printf("Client registered: player=%s", client.playerID)

		case client := <-h.unregister:
			h.mu.Lock()
			current, ok := h.clients[client.playerID]
			if ok && current == client {
				delete(h.clients, client.playerID)
				client.closeSend()
			}
			h.mu.Unlock()

			// Only the final connection triggers teardown; a replaced
			// connection leaves the player's state untouched.
			if ok && current == client {
				log.Printf("Client unregistered: player=%s", client.playerID)
				if h.onDisconnect != nil {
					h.onDisconnect(client.playerID)
				}
			}
		}
	}
}

// NotifyPlayer marshals and queues a message for one player. Unknown
// ids (bots, disconnected players) are silently skipped; a player whose
// send buffer is full is dropped.
func (h *Hub) NotifyPlayer(playerID string, msg models.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal %s message: %v", msg.Type, err)
		return
	}

	h.mu.RLock()
	client, ok := h.clients[playerID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	if !client.trySend(data) {
		log.Printf("Send buffer full for player %s, dropping connection", playerID)
		client.conn.Close()
	}
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *Client) readPump(dispatcher *Dispatcher) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		dispatcher.Dispatch(c.playerID, c.displayName, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// WebSocketHandler upgrades game connections. Identity is resolved
// upstream; the supplied playerId is trusted.
type WebSocketHandler struct {
	hub        *Hub
	dispatcher *Dispatcher
}

func NewWebSocketHandler(hub *Hub, dispatcher *Dispatcher) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, dispatcher: dispatcher}
}

func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "Missing playerId", http.StatusBadRequest)
		return
	}
	displayName := r.URL.Query().Get("displayName")
	if displayName == "" {
		displayName = playerID
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:         h.hub,
		conn:        conn,
		playerID:    playerID,
		displayName: displayName,
		send:        make(chan []byte, 256),
	}

	h.hub.register <- client

	go client.writePump()
	go client.readPump(h.dispatcher)

	// Queued directly so the welcome beats any event the register could
	// have raced with.
	welcome, err := json.Marshal(models.ServerMessage{
		Type: models.EventWelcome,
		Payload: models.WelcomePayload{
			UserID: playerID,
			Stats:  h.dispatcher.Stats(),
		},
	})
	if err == nil {
		client.trySend(welcome)
	}
}
