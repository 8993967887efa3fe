// Package ws delivers live feed updates to connected clients, one room per
// project. The hub only signals that a project's feed changed; each
// connection re-fetches and re-merges, so delivery order over the socket
// never matters.
package ws

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one WebSocket subscriber to a project's feed. Send carries
// outbound frames; Notify carries change signals, buffered to one so a burst
// of updates coalesces into a single refresh. Notify is never closed, so
// late signalers cannot panic; shutdown is the done channel.
type Client struct {
	ProjectID uuid.UUID
	UserID    string
	Conn      *websocket.Conn
	Send      chan []byte
	Notify    chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(projectID uuid.UUID, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ProjectID: projectID,
		UserID:    userID,
		Conn:      conn,
		Send:      make(chan []byte, 16),
		Notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Done is closed when the client is unregistered.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Hub tracks active subscribers per project.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[client.ProjectID] = room
	}
	room[client] = struct{}{}
	log.Printf("ws: client registered: user=%s project=%s", client.UserID, client.ProjectID)
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		return
	}
	if _, ok := room[client]; ok {
		delete(room, client)
		client.shutdown()
	}
	if len(room) == 0 {
		delete(h.rooms, client.ProjectID)
	}
	log.Printf("ws: client unregistered: user=%s project=%s", client.UserID, client.ProjectID)
}

// NotifyProject signals every subscriber of the project that its feed
// changed. A subscriber already holding a pending signal is skipped; the
// refresh it runs will pick up this change too.
func (h *Hub) NotifyProject(projectID uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[projectID] {
		select {
		case client.Notify <- struct{}{}:
		default:
		}
	}
}

// shutdown ends the client's push loop. Send is closed by the push loop
// itself, since it is the only sender on that channel.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// ReadPump drains the connection until the peer closes it. Incoming frames
// are ignored; the socket is one-way.
func (c *Client) ReadPump(h *Hub) {
	defer func() {
		h.Unregister(c)
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws: read error: %v", err)
			}
			return
		}
	}
}

// WritePump forwards queued frames to the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("ws: write error: %v", err)
			return
		}
	}
}
