package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/sahar-erp/api/internal/events"
)

// Rooms screens can subscribe to.
const (
	RoomKitchen   = "kitchen"
	RoomWebOrders = "web-orders"
)

// KnownRoom reports whether clients may join room.
func KnownRoom(room string) bool {
	return room == RoomKitchen || room == RoomWebOrders
}

// roomEvent is an internal struct for routing events to a room
type roomEvent struct {
	room  string
	event events.Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by room name
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan roomEvent

	// done is closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for room, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case re := <-h.broadcast:
			message, err := json.Marshal(re.event)
			if err != nil {
				slog.Error("marshal websocket event", "type", re.event.Type, "error", err)
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[re.room] {
				select {
				case client.send <- message:
				default:
					// slow consumer
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.rooms[client.room]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.room)
	}
}

// BroadcastToRoom queues e for every client in room. It returns false when
// ctx ends or the hub has stopped before the event could be queued.
func (h *Hub) BroadcastToRoom(ctx context.Context, room string, e events.Event) bool {
	select {
	case h.broadcast <- roomEvent{room: room, event: e}:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// ClientCount returns the number of clients connected to room.
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Publisher returns an events.Publisher that broadcasts every event to rooms.
func (h *Hub) Publisher(rooms ...string) events.Publisher {
	return roomPublisher{hub: h, rooms: rooms}
}

type roomPublisher struct {
	hub   *Hub
	rooms []string
}

func (p roomPublisher) Publish(ctx context.Context, e events.Event) error {
	for _, room := range p.rooms {
		if !p.hub.BroadcastToRoom(ctx, room, e) {
			if err := ctx.Err(); err != nil {
				return err
			}
			return errHubStopped
		}
	}
	return nil
}
