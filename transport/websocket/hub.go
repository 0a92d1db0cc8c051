package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/wricardo/sokoban/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Message types sent to renderers
const (
	TypeSnapshot   = "snapshot"
	TypeTransition = "transition"
	TypeSolved     = "solved"
	TypeReset      = "reset"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// CellUpdate is the new content of one cell after a transition
type CellUpdate struct {
	Index  int             `json:"index"`
	Kind   engine.CellKind `json:"kind"`
	Target bool            `json:"target"`
}

// Message is one frame of the rendering feed. Snapshot and reset carry the
// whole grid; transition carries only the cells that changed.
type Message struct {
	Type          string             `json:"type"`
	SessionID     string             `json:"session_id"`
	Grid          *engine.Grid       `json:"grid,omitempty"`
	Transition    *engine.Transition `json:"transition,omitempty"`
	Cells         []CellUpdate       `json:"cells,omitempty"`
	Moves         int                `json:"moves"`
	Pushes        int                `json:"pushes"`
	Solved        bool               `json:"solved"`
	BoxesOnTarget int                `json:"boxes_on_target"`
	TotalTargets  int                `json:"total_targets"`
}

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub maintains the set of active clients per session and fans out
// rendering messages to them
type Hub struct {
	// Registered clients by session ID
	sessions map[string]map[*Client]bool
	mu       sync.RWMutex

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to sessionID.
// The client receives a snapshot of state before any other message.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, state *engine.GameState) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, engine.WebSocketBufferSize),
		sessionID: sessionID,
	}

	if state != nil {
		if data, err := json.Marshal(NewSnapshot(TypeSnapshot, sessionID, state)); err == nil {
			client.send <- data
		}
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// NewSnapshot builds a full-grid message of the given type
func NewSnapshot(msgType, sessionID string, state *engine.GameState) *Message {
	m := header(msgType, sessionID, state)
	m.Grid = state.Grid.Clone()
	return m
}

// NewTransition builds an incremental message holding the cells t changed
func NewTransition(sessionID string, t engine.Transition, state *engine.GameState) *Message {
	m := header(TypeTransition, sessionID, state)
	m.Transition = &t
	for _, idx := range t.Changed() {
		m.Cells = append(m.Cells, CellUpdate{
			Index:  idx,
			Kind:   state.Grid.Get(idx),
			Target: state.Grid.IsTarget(idx),
		})
	}
	return m
}

func header(msgType, sessionID string, state *engine.GameState) *Message {
	return &Message{
		Type:          msgType,
		SessionID:     sessionID,
		Moves:         state.Moves,
		Pushes:        state.Pushes,
		Solved:        state.Solved,
		BoxesOnTarget: state.BoxesOnTarget,
		TotalTargets:  state.TotalTargets,
	}
}

// PublishSnapshot sends the whole grid to every client of a session
func (h *Hub) PublishSnapshot(sessionID string, state *engine.GameState) {
	h.publish(NewSnapshot(TypeSnapshot, sessionID, state))
}

// PublishTransition sends the cells changed by a move. Blocked transitions
// carry no cells but still reach clients so they can signal the bump.
func (h *Hub) PublishTransition(sessionID string, t engine.Transition, state *engine.GameState) {
	h.publish(NewTransition(sessionID, t, state))
}

// PublishSolved tells clients the level was just solved
func (h *Hub) PublishSolved(sessionID string, state *engine.GameState) {
	h.publish(header(TypeSolved, sessionID, state))
}

// PublishReset sends the restored grid after a reset
func (h *Hub) PublishReset(sessionID string, state *engine.GameState) {
	h.publish(NewSnapshot(TypeReset, sessionID, state))
}

// ClientCount returns the number of clients subscribed to a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	log.WithFields(log.Fields{
		"session": client.sessionID,
		"clients": len(h.sessions[client.sessionID]),
	}).Debug("websocket client registered")
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeClient(client)
}

// removeClient drops a client and closes its send channel. Callers hold h.mu.
func (h *Hub) removeClient(client *Client) {
	clients, ok := h.sessions[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)

	// Clean up empty sessions
	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}

	log.WithFields(log.Fields{
		"session": client.sessionID,
		"clients": len(clients),
	}).Debug("websocket client unregistered")
}

// publish sends a message to all clients in its session, dropping clients
// whose send buffer is full
func (h *Hub) publish(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.WithError(err).Error("failed to marshal websocket message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.sessions[message.SessionID] {
		select {
		case client.send <- data:
		default:
			h.removeClient(client)
		}
	}
}

// readPump drains the connection so pongs and close frames are processed
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// The feed is one-way; incoming messages are ignored
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithField("session", c.sessionID).WithError(err).Warn("websocket read error")
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection, one
// JSON document per frame
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
