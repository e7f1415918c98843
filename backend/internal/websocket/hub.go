package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/user/cryptodesk/backend/internal/ticker"
)

// Client represents a single WebSocket client connection.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte // Buffered channel for outbound messages
}

// Hub manages WebSocket clients subscribed to the price feed and fans
// ticker updates out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

var GlobalHub *Hub

// NewHub creates and initializes a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run starts the Hub's event loop.
func (h *Hub) Run() {
	log.Println("Starting WebSocket hub...")
	go h.listenToPriceUpdates()

	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Client registered: %s", client.Conn.RemoteAddr())

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Printf("Client unregistered: %s", client.Conn.RemoteAddr())
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Client's send buffer is full, close connection
					log.Printf("Client send buffer full, closing connection: %s", client.Conn.RemoteAddr())
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// listenToPriceUpdates forwards ticker updates to the broadcast channel.
func (h *Hub) listenToPriceUpdates() {
	for update := range ticker.PriceUpdates {
		msgBytes, err := json.Marshal(update)
		if err != nil {
			log.Printf("Error marshalling price update: %v", err)
			continue
		}
		h.broadcast <- msgBytes
	}
}

// InitializeGlobalHub creates and runs the global Hub instance.
func InitializeGlobalHub() {
	GlobalHub = NewHub()
	go GlobalHub.Run()
}
