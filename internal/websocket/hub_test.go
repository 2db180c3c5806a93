package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvRaw(t *testing.T, c *Client) []byte {
	t.Helper()

	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return data
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no delivery on send channel")
		return nil
	}
}

func assertNoDelivery(t *testing.T, c *Client) {
	t.Helper()

	select {
	case data := <-c.Send:
		t.Fatalf("unexpected delivery: %s", data)
	default:
	}
}

func TestSendToUserReachesAllBoundConnections(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	// Два устройства одного пользователя
	c1 := NewClient(hub, nil, userID)
	c2 := NewClient(hub, nil, userID)
	other := NewClient(hub, nil, uuid.New())

	hub.Bind(c1)
	hub.Bind(c2)
	hub.Bind(other)

	hub.SendToUser(userID, []byte("hello"))

	assert.Equal(t, "hello", string(recvRaw(t, c1)))
	assert.Equal(t, "hello", string(recvRaw(t, c2)))
	assertNoDelivery(t, other)
}

func TestSendToUserWithoutConnections(t *testing.T) {
	hub := NewHub()

	// Никто не привязан: событие никуда не ставится в очередь
	hub.SendToUser(uuid.New(), []byte("lost"))

	assert.Empty(t, hub.GetOnlineUsers())
}

func TestBroadcastToRoomExceptSender(t *testing.T) {
	hub := NewHub()

	c1 := NewClient(hub, nil, uuid.New())
	c2 := NewClient(hub, nil, uuid.New())
	outsider := NewClient(hub, nil, uuid.New())

	hub.JoinRoom(c1, "R1")
	hub.JoinRoom(c2, "R1")
	hub.JoinRoom(outsider, "R2")

	hub.BroadcastToRoomExcept("R1", []byte("typing"), c2.ID)

	assert.Equal(t, "typing", string(recvRaw(t, c1)))
	assertNoDelivery(t, c2)
	assertNoDelivery(t, outsider)
}

func TestLeaveRoomStopsDeliveries(t *testing.T) {
	hub := NewHub()

	c1 := NewClient(hub, nil, uuid.New())
	c2 := NewClient(hub, nil, uuid.New())

	hub.JoinRoom(c1, "R1")
	hub.JoinRoom(c2, "R1")

	assert.True(t, c1.IsInRoom("R1"))
	assert.Equal(t, []string{"R1"}, c1.GetRooms())

	hub.LeaveRoom(c1, "R1")

	assert.False(t, c1.IsInRoom("R1"))
	assert.Empty(t, c1.GetRooms())

	hub.BroadcastToRoomExcept("R1", []byte("typing"), c2.ID)
	assertNoDelivery(t, c1)
}

func TestBindMarksClientBound(t *testing.T) {
	hub := NewHub()

	client := NewClient(hub, nil, uuid.New())
	assert.False(t, client.IsBound())

	hub.Bind(client)
	assert.True(t, client.IsBound())
}

func TestUnregisterRemovesFromChannelsAndRooms(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	userID := uuid.New()
	client := NewClient(hub, nil, userID)

	hub.Register(client)
	hub.Bind(client)
	hub.JoinRoom(client, "R1")

	require.Contains(t, hub.GetOnlineUsers(), userID)
	require.Contains(t, hub.GetRoomUsers("R1"), userID)

	hub.Unregister(client)

	require.Eventually(t, func() bool {
		return len(hub.GetOnlineUsers()) == 0 && len(hub.GetRoomUsers("R1")) == 0
	}, time.Second, 10*time.Millisecond)

	// Канал отправки закрыт, писать в это соединение больше нельзя
	_, ok := <-client.Send
	assert.False(t, ok)
}

func TestUnregisterAfterStopIsNoop(t *testing.T) {
	hub := NewHub()

	client := NewClient(hub, nil, uuid.New())
	hub.registerClient(client)
	hub.Bind(client)
	hub.JoinRoom(client, "R1")

	hub.Stop()

	// Запоздавшая отмена регистрации не должна закрыть Send повторно
	hub.unregisterClient(client)

	_, ok := <-client.Send
	assert.False(t, ok)
	assert.Empty(t, hub.GetOnlineUsers())
	assert.Empty(t, hub.GetRoomUsers("R1"))
}

func TestSecondDeviceSurvivesFirstDisconnect(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	userID := uuid.New()
	c1 := NewClient(hub, nil, userID)
	c2 := NewClient(hub, nil, userID)

	hub.Register(c1)
	hub.Register(c2)
	hub.Bind(c1)
	hub.Bind(c2)

	hub.Unregister(c1)

	// Ждем, пока hub снимет первое соединение
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-c1.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	// Пользователь все еще онлайн через второе устройство
	require.Contains(t, hub.GetOnlineUsers(), userID)

	hub.SendToUser(userID, []byte("still here"))
	assert.Equal(t, "still here", string(recvRaw(t, c2)))
}
