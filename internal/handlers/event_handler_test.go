package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/letschat/internal/handlers/dto"
	ws "github.com/thereayou/letschat/internal/websocket"
)

func recvEvent(t *testing.T, c *ws.Client) ws.Event {
	t.Helper()

	select {
	case data := <-c.Send:
		var event ws.Event
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no event received")
		return ws.Event{}
	}
}

func assertNoEvent(t *testing.T, c *ws.Client) {
	t.Helper()

	select {
	case data := <-c.Send:
		t.Fatalf("unexpected event: %s", data)
	default:
	}
}

func newMessageEvent(t *testing.T, sender uuid.UUID, members ...uuid.UUID) *ws.Event {
	t.Helper()

	chatID := uuid.New()
	memberInfos := make([]dto.UserInfo, len(members))
	for i, id := range members {
		memberInfos[i] = dto.UserInfo{ID: id}
	}

	payload := dto.EventMessage{
		ID:        uuid.New(),
		Content:   "hello there",
		CreatedAt: time.Now(),
		Sender:    dto.UserInfo{ID: sender},
		Chat: dto.EventChat{
			ID:      chatID,
			Members: memberInfos,
		},
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	return &ws.Event{Kind: ws.EventNewMessage, Data: data}
}

func TestSetupBindsAndAcksCallerOnly(t *testing.T) {
	hub := ws.NewHub()
	h := NewEventHandler(hub)

	userID := uuid.New()
	client := ws.NewClient(hub, nil, userID)
	bystander := ws.NewClient(hub, nil, uuid.New())
	h.HandleEvent(bystander, &ws.Event{Kind: ws.EventSetup})
	recvEvent(t, bystander)

	payload, _ := json.Marshal(ws.SetupPayload{ID: userID.String()})
	require.NoError(t, h.HandleEvent(client, &ws.Event{Kind: ws.EventSetup, Data: payload}))

	ack := recvEvent(t, client)
	assert.Equal(t, ws.EventConnected, ack.Kind)
	assert.Contains(t, hub.GetOnlineUsers(), userID)

	// connected не рассылается другим соединениям
	assertNoEvent(t, bystander)
}

func TestSetupRejectsForeignIdentity(t *testing.T) {
	hub := ws.NewHub()
	h := NewEventHandler(hub)

	client := ws.NewClient(hub, nil, uuid.New())

	payload, _ := json.Marshal(ws.SetupPayload{ID: uuid.NewString()})
	err := h.HandleEvent(client, &ws.Event{Kind: ws.EventSetup, Data: payload})

	assert.ErrorIs(t, err, ws.ErrUnauthorized)
	assert.Empty(t, hub.GetOnlineUsers())
}

func TestNewMessageFanOutExcludesSender(t *testing.T) {
	hub := ws.NewHub()
	h := NewEventHandler(hub)

	u1 := uuid.New()
	u2 := uuid.New()

	receiver := ws.NewClient(hub, nil, u1)
	senderConn := ws.NewClient(hub, nil, u2)
	senderPhone := ws.NewClient(hub, nil, u2)
	hub.Bind(receiver)
	hub.Bind(senderConn)
	hub.Bind(senderPhone)

	require.NoError(t, h.HandleEvent(senderConn, newMessageEvent(t, u2, u1, u2)))

	event := recvEvent(t, receiver)
	assert.Equal(t, ws.EventMessageReceived, event.Kind)

	var delivered dto.EventMessage
	require.NoError(t, json.Unmarshal(event.Data, &delivered))
	assert.Equal(t, "hello there", delivered.Content)
	assert.Equal(t, u2, delivered.Sender.ID)

	// Ровно одна доставка получателю
	assertNoEvent(t, receiver)

	// Отправитель не получает собственное сообщение ни на одном устройстве
	assertNoEvent(t, senderConn)
	assertNoEvent(t, senderPhone)
}

func TestNewMessageWithoutMembersDroppedSilently(t *testing.T) {
	hub := ws.NewHub()
	h := NewEventHandler(hub)

	u1 := uuid.New()
	receiver := ws.NewClient(hub, nil, u1)
	hub.Bind(receiver)

	sender := ws.NewClient(hub, nil, uuid.New())

	// Событие без списка участников: лог и тишина, без ошибки отправителю
	require.NoError(t, h.HandleEvent(sender, newMessageEvent(t, sender.UserID)))

	assertNoEvent(t, receiver)
	assertNoEvent(t, sender)
}

func TestTypingBroadcastScopedToRoom(t *testing.T) {
	hub := ws.NewHub()
	h := NewEventHandler(hub)

	watcher := ws.NewClient(hub, nil, uuid.New())
	typist := ws.NewClient(hub, nil, uuid.New())
	outsider := ws.NewClient(hub, nil, uuid.New())

	require.NoError(t, h.HandleEvent(watcher, &ws.Event{Kind: ws.EventJoinChat, Room: "R1"}))
	require.NoError(t, h.HandleEvent(typist, &ws.Event{Kind: ws.EventJoinChat, Room: "R1"}))
	require.NoError(t, h.HandleEvent(outsider, &ws.Event{Kind: ws.EventJoinChat, Room: "R2"}))

	require.NoError(t, h.HandleEvent(typist, &ws.Event{Kind: ws.EventTyping, Room: "R1"}))

	event := recvEvent(t, watcher)
	assert.Equal(t, ws.EventTyping, event.Kind)
	assert.Equal(t, "R1", event.Room)

	// Ни эха отправителю, ни утечки в другую комнату
	assertNoEvent(t, typist)
	assertNoEvent(t, outsider)

	require.NoError(t, h.HandleEvent(typist, &ws.Event{Kind: ws.EventStopTyping, Room: "R1"}))
	event = recvEvent(t, watcher)
	assert.Equal(t, ws.EventStopTyping, event.Kind)
}

func TestJoinChatRequiresRoom(t *testing.T) {
	hub := ws.NewHub()
	h := NewEventHandler(hub)

	client := ws.NewClient(hub, nil, uuid.New())

	err := h.HandleEvent(client, &ws.Event{Kind: ws.EventJoinChat})
	assert.ErrorIs(t, err, ws.ErrInvalidEvent)

	err = h.HandleEvent(client, &ws.Event{Kind: ws.EventTyping})
	assert.ErrorIs(t, err, ws.ErrInvalidEvent)
}

func TestUnknownEventIgnored(t *testing.T) {
	hub := ws.NewHub()
	h := NewEventHandler(hub)

	client := ws.NewClient(hub, nil, uuid.New())

	assert.NoError(t, h.HandleEvent(client, &ws.Event{Kind: "dance"}))
	assertNoEvent(t, client)
}
