package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Hub — реестр каналов доставки: персональные каналы пользователей
// (одно подключение на каждое устройство) и ad-hoc комнаты для
// индикаторов набора текста.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Подключения по UserID: пользователь может держать несколько
	// соединений одновременно, все получают fan-out доставки
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Подключения в комнатах; метка комнаты — произвольная строка,
	// обычно id чата
	rooms map[string]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		rooms:       make(map[string]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.keepalive()
		}
	}
}

// Stop останавливает hub. Клиенты сначала снимаются с учета,
// чтобы запоздавший unregister из дренируемого канала не закрыл
// Send повторно.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}

	h.userClients = make(map[uuid.UUID]map[uuid.UUID]*Client)
	h.rooms = make(map[string]map[uuid.UUID]*Client)
}

// Register регистрирует новое соединение
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister отменяет регистрацию соединения
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	log.Printf("Client registered: %s (User: %s)", client.ID, client.UserID)
}

// Bind привязывает соединение к персональному каналу пользователя.
// Вызывается при событии setup; до этого соединение не получает
// адресных доставок.
func (h *Hub) Bind(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	client.mu.Lock()
	client.Bound = true
	client.mu.Unlock()

	log.Printf("Client bound: %s (User: %s)", client.ID, client.UserID)
}

// unregisterClient снимает соединение со всех каналов и комнат.
// Вызывается транспортом при закрытии соединения.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	// Удаляем из всех комнат
	for room := range client.Rooms {
		h.removeFromRoomUnsafe(client, room)
	}

	// Удаляем из персонального канала пользователя
	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)

	log.Printf("Client unregistered: %s (User: %s)", client.ID, client.UserID)
}

// JoinRoom подписывает соединение на комнату. Подтверждения нет.
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[uuid.UUID]*Client)
	}

	h.rooms[room][client.ID] = client
	client.mu.Lock()
	client.Rooms[room] = true
	client.mu.Unlock()
}

// LeaveRoom отписывает соединение от комнаты
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client, room)
}

func (h *Hub) removeFromRoomUnsafe(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		if _, ok := members[client.ID]; ok {
			delete(members, client.ID)
			client.mu.Lock()
			delete(client.Rooms, room)
			client.mu.Unlock()

			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

// SendToUser доставляет событие на все привязанные соединения
// пользователя. Доставка best-effort: если у пользователя нет
// соединений, событие никуда не ставится в очередь.
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.userClients[userID]; ok {
		for _, client := range clients {
			select {
			case client.Send <- message:
			default:
				log.Printf("Client %s send channel full", client.ID)
			}
		}
	}
}

// BroadcastToRoomExcept рассылает событие всем подписчикам комнаты,
// кроме соединения-отправителя.
func (h *Hub) BroadcastToRoomExcept(room string, message []byte, excludeID uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if members, ok := h.rooms[room]; ok {
		for _, client := range members {
			if client.ID == excludeID {
				continue
			}
			select {
			case client.Send <- message:
			default:
				log.Printf("Client %s send channel full", client.ID)
			}
		}
	}
}

func (h *Hub) keepalive() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event := Event{
		Kind:      EventPing,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(event); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// GetOnlineUsers возвращает список пользователей с привязанными соединениями
func (h *Hub) GetOnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]uuid.UUID, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}

// GetRoomUsers возвращает список пользователей, подписанных на комнату
func (h *Hub) GetRoomUsers(room string) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userMap := make(map[uuid.UUID]bool)
	if members, ok := h.rooms[room]; ok {
		for _, client := range members {
			userMap[client.UserID] = true
		}
	}

	users := make([]uuid.UUID, 0, len(userMap))
	for userID := range userMap {
		users = append(users, userID)
	}
	return users
}
