package websocket

import (
	"encoding/json"
	"time"
)

// EventKind определяет типы событий
type EventKind string

const (
	// Клиент -> сервер
	EventSetup      EventKind = "setup"
	EventJoinChat   EventKind = "join-chat"
	EventTyping     EventKind = "typing"
	EventStopTyping EventKind = "stop-typing"
	EventNewMessage EventKind = "new-message"

	// Сервер -> клиент
	EventConnected       EventKind = "connected"
	EventMessageReceived EventKind = "message-received"

	// Системные
	EventError EventKind = "error"
	EventPing  EventKind = "ping"
	EventPong  EventKind = "pong"
)

// Event — конверт для всех событий на соединении.
// Room заполняется для событий, адресованных комнате
// (join-chat, typing, stop-typing), Data — для setup и new-message.
type Event struct {
	Kind      EventKind       `json:"event"`
	Room      string          `json:"room,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// SetupPayload — тело события setup. ID должен совпадать
// с пользователем из токена, под которым открыто соединение.
type SetupPayload struct {
	ID string `json:"id"`
}
