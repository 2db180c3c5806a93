package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/thereayou/letschat/internal/handlers/dto"
	"github.com/thereayou/letschat/internal/websocket"
)

// EventHandler — relay событий реального времени. Сам ничего не
// хранит: каждое событие обрабатывается независимо по текущему
// состоянию реестра.
type EventHandler struct {
	hub *websocket.Hub
}

func NewEventHandler(hub *websocket.Hub) *EventHandler {
	return &EventHandler{hub: hub}
}

func (h *EventHandler) HandleEvent(client *websocket.Client, event *websocket.Event) error {
	switch event.Kind {
	case websocket.EventSetup:
		return h.handleSetup(client, event)

	case websocket.EventJoinChat:
		return h.handleJoinChat(client, event)

	case websocket.EventTyping, websocket.EventStopTyping:
		return h.handleTyping(client, event)

	case websocket.EventNewMessage:
		return h.handleNewMessage(client, event)

	default:
		log.Printf("Unknown event kind: %s", event.Kind)
		return nil
	}
}

// handleSetup привязывает соединение к персональному каналу и
// подтверждает это событием connected — только самому соединению.
func (h *EventHandler) handleSetup(client *websocket.Client, event *websocket.Event) error {
	// Идентичность берется из токена; payload с чужим id отклоняется
	if len(event.Data) > 0 {
		var payload websocket.SetupPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return websocket.ErrInvalidEvent
		}
		if payload.ID != "" && payload.ID != client.UserID.String() {
			return websocket.ErrUnauthorized
		}
	}

	h.hub.Bind(client)

	return client.SendEvent(websocket.EventConnected, "", nil)
}

// handleJoinChat подписывает соединение на комнату. Без подтверждения.
func (h *EventHandler) handleJoinChat(client *websocket.Client, event *websocket.Event) error {
	if event.Room == "" {
		return websocket.ErrInvalidEvent
	}

	h.hub.JoinRoom(client, event.Room)
	return nil
}

// handleTyping рассылает typing/stop-typing всем подписчикам комнаты,
// кроме соединения-отправителя.
func (h *EventHandler) handleTyping(client *websocket.Client, event *websocket.Event) error {
	if event.Room == "" {
		return websocket.ErrInvalidEvent
	}

	out := websocket.Event{
		Kind:      event.Kind,
		Room:      event.Room,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(out)
	if err != nil {
		return err
	}

	h.hub.BroadcastToRoomExcept(event.Room, data, client.ID)
	return nil
}

// handleNewMessage раздает message-received в персональный канал
// каждого участника чата, кроме отправителя. Payload пересылается
// как есть; событие без списка участников молча отбрасывается.
func (h *EventHandler) handleNewMessage(client *websocket.Client, event *websocket.Event) error {
	var payload dto.EventMessage
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return websocket.ErrInvalidEvent
	}

	if len(payload.Chat.Members) == 0 {
		log.Printf("chat members not defined")
		return nil
	}

	out := websocket.Event{
		Kind:      websocket.EventMessageReceived,
		Data:      event.Data,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(out)
	if err != nil {
		return err
	}

	for _, member := range payload.Chat.Members {
		if member.ID == payload.Sender.ID {
			continue
		}
		h.hub.SendToUser(member.ID, data)
	}

	return nil
}
