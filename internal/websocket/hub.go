package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Nour-MZ/Nomada/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeBookingCreated   MessageType = "booking_created"
	MessageTypeBookingCancelled MessageType = "booking_cancelled"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType          `json:"type"`
	Booking   models.BookingRecord `json:"booking"`
	Timestamp int64                `json:"timestamp"`
}

// Client represents a WebSocket client connection
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	email string
}

// Hub fans booking events out to the connections of the booking's owner.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
	}
}

// Run starts the hub's main loop. It returns when stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.email] == nil {
				h.clients[client.email] = make(map[*Client]bool)
			}
			h.clients[client.email][client] = true
			log.Printf("WebSocket: Client registered for %s (total: %d)", client.email, len(h.clients[client.email]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			email := message.Booking.UserEmail
			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("WebSocket: Failed to marshal message: %v", err)
				continue
			}

			h.mu.Lock()
			clients := h.clients[email]
			for client := range clients {
				select {
				case client.send <- data:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.email]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	log.Printf("WebSocket: Client unregistered from %s (remaining: %d)", client.email, len(clients))
	if len(clients) == 0 {
		delete(h.clients, client.email)
	}
}

// PublishBooking queues a booking change for the owner's connections.
// Bookings without an owner are dropped.
func (h *Hub) PublishBooking(rec models.BookingRecord) {
	rec.UserEmail = strings.ToLower(strings.TrimSpace(rec.UserEmail))
	if rec.UserEmail == "" {
		return
	}
	msgType := MessageTypeBookingCreated
	if rec.Status == models.BookingStatusCancelled {
		msgType = MessageTypeBookingCancelled
	}
	msg := &Message{Type: msgType, Booking: rec, Timestamp: time.Now().UnixMilli()}
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("WebSocket: Broadcast queue full, dropping %s for %s", msgType, rec.Reference)
	}
}

// GetClientCount returns the number of connections watching an email
func (h *Hub) GetClientCount(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[strings.ToLower(email)])
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWebSocket handles GET /api/bookings/ws?email=
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket: Upgrade failed: %v", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, 16), email: email}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump only watches for the peer going away.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
