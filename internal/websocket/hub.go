package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
)

const (
	// client messages accepted per second before they are dropped
	maxMessagesPerSecond = 10
)

// Event types pushed to browsers
const (
	EventCart         = "cart"
	EventNotification = "notification"
)

// Envelope is the frame written to every client
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ClientMessage is a frame received from a browser
type ClientMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// MessageHandler reacts to client frames for a session
type MessageHandler func(sessionID string, msg ClientMessage)

type Client struct {
	Hub       *Hub
	Conn      *Conn
	SessionID string
	Send      chan []byte

	rateMu        sync.Mutex
	messageCount  int
	lastResetTime time.Time
}

func NewClient(hub *Hub, conn *Conn, sessionID string) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}
}

type outbound struct {
	sessionID string
	message   []byte
}

// Hub tracks the open tabs of each guest session and fans events out to them
type Hub struct {
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	done       chan struct{}
	stopOnce   sync.Once

	handler MessageHandler

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan outbound, 1024),
		done:       make(chan struct{}),
	}
}

// SetHandler installs the callback for client frames. Call before Run.
func (h *Hub) SetHandler(fn MessageHandler) {
	h.handler = fn
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			tabs := len(h.clients[client.SessionID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"session_id": client.SessionID,
				"tabs":       tabs,
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients[msg.sessionID] {
				select {
				case client.Send <- msg.message:
				default:
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"session_id": msg.sessionID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.SessionID)
	} else {
		h.clients[client.SessionID] = kept
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"session_id": client.SessionID,
		"tabs":       len(kept),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

// Stop ends Run and disconnects every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Publish queues an event for every tab of the session. Events for sessions
// with no open tab are dropped.
func (h *Hub) Publish(sessionID, event string, data interface{}) error {
	if !h.IsOnline(sessionID) {
		return nil
	}
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		logger.Error("Failed to marshal event", err, map[string]interface{}{
			"event": event,
		})
		return err
	}

	select {
	case h.broadcast <- outbound{sessionID: sessionID, message: payload}:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"session_id": sessionID,
			"event":      event,
		})
	}
	return nil
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) IsOnline(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}

// HandleClientMessage rate limits and dispatches one frame from client
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.rateMu.Lock()
	now := time.Now()
	if now.Sub(client.lastResetTime) >= time.Second {
		client.messageCount = 0
		client.lastResetTime = now
	}
	client.messageCount++
	count := client.messageCount
	client.rateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"session_id": client.SessionID,
			"count":      count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"session_id": client.SessionID,
			"error":      err.Error(),
		})
		return
	}

	if h.handler != nil {
		h.handler(client.SessionID, msg)
	}
}
