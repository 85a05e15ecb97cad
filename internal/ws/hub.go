package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// orderEvent is an internal struct for routing events to one order's room
type orderEvent struct {
	OrderID uuid.UUID
	Event   Event
}

// Hub maintains the set of active chat clients, one room per order, and
// broadcasts pushed messages to them. Pushed rows only ever append on the
// receiving side; the hub never re-delivers history (clients load that over
// HTTP first).
type Hub struct {
	// Registered clients by order ID
	rooms map[uuid.UUID]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *orderEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *orderEvent, 256),
	}
}

// Run starts the hub's main loop and blocks until ctx is cancelled.
// This should be called as a goroutine: go hub.Run(ctx)
// On cancellation every connected client's send channel is closed, which
// unwinds their write pumps.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for orderID, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, orderID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.orderID] == nil {
				h.rooms[client.orderID] = make(map[*Client]bool)
			}
			h.rooms[client.orderID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.orderID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					// Clean up empty rooms
					if len(clients) == 0 {
						delete(h.rooms, client.orderID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.OrderID]

			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.OrderID], client)
					if len(h.rooms[event.OrderID]) == 0 {
						delete(h.rooms, event.OrderID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToOrder sends an event to all clients subscribed to an order's
// chat room. This is the public API for handlers to push new messages.
func (h *Hub) BroadcastToOrder(orderID uuid.UUID, event Event) {
	h.broadcast <- &orderEvent{
		OrderID: orderID,
		Event:   event,
	}
}
