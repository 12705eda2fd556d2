package ws

import (
	"sync"

	"chat_server/internal/domain"
	"chat_server/pkg/logger"
)

// Hub держит реестр живых клиентов и комнаты-каналы рассылки.
// Отправка никогда не блокируется: переполненный буфер клиента роняет кадр,
// а не исходную операцию.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
	log     logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		rooms:   make(map[string]map[*Client]bool),
		log:     log,
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	for room, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	close(client.send)
}

func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[client] = true
}

func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) ToRoom(room string, event domain.Event) {
	payload, err := encodeEvent(event)
	if err != nil {
		h.log.Error("Failed to encode event", "error", err, "type", event.EventType())
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[room] {
		client.enqueue(payload)
	}
}

func (h *Hub) ToOthersInRoom(room, excludeConnID string, event domain.Event) {
	payload, err := encodeEvent(event)
	if err != nil {
		h.log.Error("Failed to encode event", "error", err, "type", event.EventType())
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[room] {
		if client.ID != excludeConnID {
			client.enqueue(payload)
		}
	}
}

func (h *Hub) ToAll(event domain.Event) {
	payload, err := encodeEvent(event)
	if err != nil {
		h.log.Error("Failed to encode event", "error", err, "type", event.EventType())
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.enqueue(payload)
	}
}

// roomSize используется в тестах
func (h *Hub) roomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
