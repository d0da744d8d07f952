package services

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"projector-server/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	clientBufferSize    = 16
	broadcastBufferSize = 64
)

// Broadcaster notifies connected viewers of a new active slide.
// Notify must not block the caller.
type Broadcaster interface {
	Notify(slide models.ActiveSlide)
}

// Message is the frame pushed to viewers
type Message struct {
	Type    string             `json:"type"`
	Payload models.ActiveSlide `json:"payload"`
}

// MessageActiveSlide is the frame type carrying the current active slide
const MessageActiveSlide = "active_slide"

// Client is a single viewer connection
type Client struct {
	ID      string
	conn    *websocket.Conn
	send    chan []byte
	service *WebSocketService
}

// WebSocketService fans active slide updates out to every connected viewer
type WebSocketService struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan models.ActiveSlide
	done       chan struct{}

	slideStore ActiveSlideStore
	count      atomic.Int64
	dropped    atomic.Uint64
}

// NewWebSocketService creates the hub; call Run in its own goroutine
func NewWebSocketService() *WebSocketService {
	return &WebSocketService{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.ActiveSlide, broadcastBufferSize),
		done:       make(chan struct{}),
	}
}

// SetSlideStore sets the store used to greet new viewers with the current slide
func (ws *WebSocketService) SetSlideStore(store ActiveSlideStore) {
	ws.slideStore = store
}

// Run owns the client set until Stop is called
func (ws *WebSocketService) Run() {
	for {
		select {
		case client := <-ws.register:
			ws.clients[client] = true
			ws.count.Add(1)
			log.Printf("Viewer connected: %s (total=%d)", client.ID, len(ws.clients))
			// Broadcasts are handled in this loop, so any later commit
			// reaches the viewer after this snapshot.
			ws.greet(client)

		case client := <-ws.unregister:
			ws.remove(client)

		case slide := <-ws.broadcast:
			data, err := encodeSlide(slide)
			if err != nil {
				log.Printf("Failed to encode active slide: %v", err)
				continue
			}
			for client := range ws.clients {
				select {
				case client.send <- data:
				default:
					// Slow viewer; drop it rather than stall the others.
					log.Printf("Viewer %s too slow, disconnecting", client.ID)
					ws.remove(client)
				}
			}

		case <-ws.done:
			for client := range ws.clients {
				ws.remove(client)
			}
			return
		}
	}
}

// greet queues the current slide for a newly registered viewer
func (ws *WebSocketService) greet(client *Client) {
	if ws.slideStore == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	slide, err := ws.slideStore.Read(ctx)
	cancel()
	if err != nil {
		log.Printf("Failed to read active slide for viewer %s: %v", client.ID, err)
		return
	}
	data, err := encodeSlide(slide)
	if err != nil {
		log.Printf("Failed to encode active slide: %v", err)
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func (ws *WebSocketService) remove(client *Client) {
	if _, ok := ws.clients[client]; !ok {
		return
	}
	delete(ws.clients, client)
	close(client.send)
	ws.count.Add(-1)
	log.Printf("Viewer disconnected: %s (total=%d)", client.ID, len(ws.clients))
}

// Stop shuts the hub down and disconnects every viewer
func (ws *WebSocketService) Stop() {
	close(ws.done)
}

// Notify implements Broadcaster. When the queue is full the update is dropped.
func (ws *WebSocketService) Notify(slide models.ActiveSlide) {
	select {
	case ws.broadcast <- slide.Clone():
	default:
		ws.dropped.Add(1)
		log.Printf("Broadcast queue full, dropping active slide update")
	}
}

// ClientCount returns the number of connected viewers
func (ws *WebSocketService) ClientCount() int {
	return int(ws.count.Load())
}

// Dropped returns how many broadcasts were discarded
func (ws *WebSocketService) Dropped() uint64 {
	return ws.dropped.Load()
}

// Attach registers an upgraded connection and starts its pumps. The hub
// greets the viewer with the current slide once it is registered.
func (ws *WebSocketService) Attach(conn *websocket.Conn) *Client {
	client := &Client{
		ID:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, clientBufferSize),
		service: ws,
	}

	select {
	case ws.register <- client:
	case <-ws.done:
		conn.Close()
		return client
	}

	go client.writePump()
	go client.readPump()
	return client
}

func encodeSlide(slide models.ActiveSlide) ([]byte, error) {
	return json.Marshal(Message{Type: MessageActiveSlide, Payload: slide})
}

// readPump discards viewer input and detects disconnects
func (c *Client) readPump() {
	defer func() {
		select {
		case c.service.unregister <- c:
		case <-c.service.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Viewer %s read error: %v", c.ID, err)
			}
			return
		}
	}
}

// writePump sends queued frames and keeps the connection alive
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
