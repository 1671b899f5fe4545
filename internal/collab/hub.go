package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nisshchayarathi/drawing-app/internal/roomsync"
)

type Room struct {
	id      string
	clients map[string]*Client // clientID -> client
}

func NewRoom(id string) *Room {
	return &Room{
		id:      id,
		clients: make(map[string]*Client),
	}
}

// Hub tracks which connections joined which rooms and fans frames out to the
// other members of a room.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // roomID -> room
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run processes connects and disconnects until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			return
		}
	}
}

// Register adds a connection. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a connection and everything it joined.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.log.Info("client connected", "user", client.UserID, "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	for roomID := range client.rooms {
		h.leaveLocked(client, roomID)
	}
	close(client.send)
	h.mu.Unlock()

	h.log.Info("client disconnected", "user", client.UserID, "client", client.ClientID)
}

// Members returns the client ids currently joined to roomID.
func (h *Hub) Members(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[roomID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(room.clients))
	for id := range room.clients {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) join(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		h.rooms[roomID] = room
	}
	room.clients[client.ClientID] = client
	client.rooms[roomID] = struct{}{}
}

func (h *Hub) leave(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, roomID)
}

func (h *Hub) leaveLocked(client *Client, roomID string) {
	delete(client.rooms, roomID)
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(room.clients, client.ClientID)
	if len(room.clients) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) isMember(client *Client, roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := client.rooms[roomID]
	return ok
}

func (h *Hub) handleFrame(sender *Client, data []byte) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		h.log.Warn("invalid frame", "error", err, "user", sender.UserID)
		sender.Send(errorFrame("", "invalid message"))
		return
	}
	roomID := f.room()

	switch f.Type {
	case roomsync.TypeJoinRoom:
		if roomID == "" {
			sender.Send(errorFrame("", "roomId is required"))
			return
		}
		h.join(sender, roomID)
		h.log.Info("joined room", "user", sender.UserID, "room", roomID)

	case roomsync.TypeLeaveRoom:
		h.leave(sender, roomID)
		h.log.Info("left room", "user", sender.UserID, "room", roomID)

	case roomsync.TypeChat, roomsync.TypeUpdate, roomsync.TypeErase:
		if !h.isMember(sender, roomID) {
			sender.Send(errorFrame(roomID, "not a member of this room"))
			return
		}
		if _, err := roomsync.DecodeIncoming(data); err != nil {
			h.log.Warn("rejected frame", "error", err, "user", sender.UserID, "room", roomID)
			sender.Send(errorFrame(roomID, err.Error()))
			return
		}
		f.RoomID = roomID
		f.Room = ""
		f.UserID = sender.UserID
		out, err := json.Marshal(f)
		if err != nil {
			h.log.Error("marshal frame", "error", err)
			return
		}
		h.broadcastToRoom(roomID, out, sender.ClientID)

	default:
		h.log.Warn("unknown frame type", "type", f.Type, "user", sender.UserID)
	}
}

// broadcastToRoom holds the read lock while queueing so no send channel can be
// closed underneath it. Client.Send never blocks.
func (h *Hub) broadcastToRoom(roomID string, data []byte, excludeClientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.Send(data)
		}
	}
}
