package notifyhub

import (
	"context"
	"sync"
)

// Hub is the pub/sub broker for connected status-push clients, grounded on
// arkeep's server/internal/websocket.Hub. Registration and unregistration
// are serialised through Run's single goroutine, which takes mu's write
// lock to change the registry; Publish takes a brief read-lock to copy the target set
// before sending, so a slow client's full buffer cannot stall the event
// loop.
type Hub struct {
	clients map[*Client]struct{}
	topics  map[string]map[*Client]struct{}

	mu sync.RWMutex

	register   chan *Client
	unregister chan *Client
}

// NewHub creates an idle Hub. Call Run in its own goroutine before Publish
// can reach anyone.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		topics:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
	}
}

// Run drains register/unregister until ctx is cancelled, at which point
// every connected client's send channel is closed so its writePump exits.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			for _, topic := range client.topics {
				if h.topics[topic] == nil {
					h.topics[topic] = make(map[*Client]struct{})
				}
				h.topics[topic][client] = struct{}{}
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for _, topic := range client.topics {
					delete(h.topics[topic], client)
					if len(h.topics[topic]) == 0 {
						delete(h.topics, topic)
					}
				}
				close(client.send)
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]struct{})
			h.topics = make(map[string]map[*Client]struct{})
			h.mu.Unlock()
			return
		}
	}
}

// Publish sends ev to every client subscribed to topic. Safe to call from
// any goroutine — the dispatcher loop, a job terminator, an inactivity
// timer callback.
func (h *Hub) Publish(topic string, ev Event) {
	h.mu.RLock()
	targets := h.topics[topic]
	clients := make([]*Client, 0, len(targets))
	for c := range targets {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- ev:
		default:
			h.unregister <- c
		}
	}
}

// Subscribe registers client and adds it to all of its topics.
func (h *Hub) Subscribe(client *Client) { h.register <- client }

// Unsubscribe removes client from the hub and all of its topic
// subscriptions.
func (h *Hub) Unsubscribe(client *Client) { h.unregister <- client }

// ConnectedCount reports the current number of connected clients.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
