package handlers

import (
	"log"

	"github.com/gofiber/contrib/websocket"
	ws "github.com/user/cryptodesk/backend/internal/websocket" // Alias internal websocket package
)

// PriceWSEndpoint is the handler for the WebSocket price feed. The
// feed is public; authentication for websockets would need a token in
// the connection URL or an initial message, which the price feed
// doesn't require.
func PriceWSEndpoint(c *websocket.Conn) {
	client := &ws.Client{
		Conn: c,
		Send: make(chan []byte, 256), // Buffered channel for outgoing messages to this client
	}

	// Register the client with the hub
	ws.GlobalHub.Register <- client

	// Goroutine to handle writing messages from the hub to the client
	go clientWritePump(client)

	// Goroutine to handle reading messages from the client (disconnect detection)
	go clientReadPump(client)

	log.Printf("WebSocket connection established: %s", c.RemoteAddr())
	// The handler function returns here, but the goroutines keep running.
}

// clientWritePump pumps messages from the hub to the websocket connection.
func clientWritePump(client *ws.Client) {
	defer func() {
		client.Conn.Close()
		log.Printf("Write pump stopped for %s", client.Conn.RemoteAddr())
	}()

	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Error writing message to %s: %v", client.Conn.RemoteAddr(), err)
			// If write fails, assume client disconnected
			ws.GlobalHub.Unregister <- client
			return
		}
	}
	// If client.Send channel is closed by the hub, this loop terminates
}

// clientReadPump drains the websocket connection so disconnects are
// noticed. The price feed expects no inbound messages.
func clientReadPump(client *ws.Client) {
	defer func() {
		ws.GlobalHub.Unregister <- client
		client.Conn.Close()
		log.Printf("Read pump stopped for %s", client.Conn.RemoteAddr())
	}()

	for {
		// ReadMessage blocks until a message is received or an error occurs
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Client disconnected unexpectedly %s: %v", client.Conn.RemoteAddr(), err)
			}
			break // Exit loop on error
		}
	}
}
