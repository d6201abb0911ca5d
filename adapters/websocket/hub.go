package websocket

import (
	"sync/atomic"
)

// Hub tracks open sessions so they can be counted and closed on shutdown.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	shutdown   chan chan struct{}
	done       chan struct{}
	count      atomic.Int64

	OnChange func(n int)
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	go h.run()
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.changed()

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				h.changed()
			}

		case ack := <-h.shutdown:
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.changed()
			close(ack)
			return
		}
	}
}

func (h *Hub) changed() {
	h.count.Store(int64(len(h.clients)))
	if h.OnChange != nil {
		h.OnChange(len(h.clients))
	}
}

// Register reports false once the hub has shut down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

// Shutdown closes every open session and stops the hub.
func (h *Hub) Shutdown() {
	ack := make(chan struct{})
	select {
	case h.shutdown <- ack:
		<-ack
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}
