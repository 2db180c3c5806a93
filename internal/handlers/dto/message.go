package dto

import (
	"github.com/google/uuid"
	"time"
)

type UserInfo struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullName,omitempty"`
	Email     string    `json:"email,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// SendMessageRequest — тело POST /api/v1/message
type SendMessageRequest struct {
	ChatID  string `json:"chatId" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// MessageResponse — сообщение в том виде, в котором оно уходит
// наружу: и в HTTP-ответах, и в payload события message-received.
type MessageResponse struct {
	ID        uuid.UUID  `json:"id"`
	ChatID    uuid.UUID  `json:"chatId"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	Sender    UserInfo   `json:"sender"`
	Chat      *EventChat `json:"chat,omitempty"`
}

// EventChat — чат внутри payload события new-message. Relay читает
// отсюда список участников для fan-out.
type EventChat struct {
	ID      uuid.UUID  `json:"id"`
	Name    string     `json:"name,omitempty"`
	IsGroup bool       `json:"isGroup,omitempty"`
	Members []UserInfo `json:"members"`
}

// EventMessage — payload события new-message, как его присылает
// клиент. Пересылается получателям как есть.
type EventMessage struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Sender    UserInfo  `json:"sender"`
	Chat      EventChat `json:"chat"`
}
