package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"github.com/anjiri1684/studio_booking/notifications"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

type Client struct {
	AdminID string
	Conn    Conn
}

// Hub fans booking and slot events out to every connected admin dashboard.
type Hub struct {
	clients    map[*Client]struct{}
	clientsMu  sync.RWMutex
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan notifications.Event
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan notifications.Event, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled. It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.clientsMu.Lock()
			for c := range h.clients {
				_ = c.Conn.Close()
				delete(h.clients, c)
			}
			h.clientsMu.Unlock()
			return
		case client := <-h.Register:
			log.Printf("Admin feed client registered: %s", client.AdminID)
			h.clientsMu.Lock()
			h.clients[client] = struct{}{}
			h.clientsMu.Unlock()
		case client := <-h.Unregister:
			log.Printf("Admin feed client unregistered: %s", client.AdminID)
			h.clientsMu.Lock()
			delete(h.clients, client)
			h.clientsMu.Unlock()
		case event := <-h.broadcast:
			h.clientsMu.Lock()
			for client := range h.clients {
				if err := client.Conn.WriteJSON(event); err != nil {
					log.Printf("Error sending event to admin %s: %v", client.AdminID, err)
					_ = client.Conn.Close()
					delete(h.clients, client)
				}
			}
			h.clientsMu.Unlock()
		}
	}
}

// Notify queues admin-facing events for broadcast. A full queue drops the event rather than
// stall the request that produced it.
func (h *Hub) Notify(_ context.Context, e notifications.Event) error {
	if !e.Admin() {
		return nil
	}
	select {
	case h.broadcast <- e:
	default:
		log.Printf("⚠️ Admin feed queue full, dropping %s", e.Type)
	}
	return nil
}

func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// register hands client to Run. It reports false, closing the connection, once Run has exited.
func (h *Hub) register(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		_ = client.Conn.Close()
		return false
	}
}

func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Serve registers c for the life of the connection. Incoming messages are read and discarded;
// the read loop only detects disconnects.
func (h *Hub) Serve(c *websocket.Conn, adminID string) {
	client := &Client{AdminID: adminID, Conn: c}
	if !h.register(client) {
		return
	}
	defer h.unregister(client)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
