package models

import (
	"github.com/google/uuid"
	"time"
)

// Имя, которое получают direct-чаты вместо настоящего названия
const DirectChatName = "sender"

type Chat struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name    string    `gorm:"not null"`
	IsGroup bool      `gorm:"not null;default:false"`

	// AdminID заполняется только для групповых чатов
	AdminID         *uuid.UUID
	LatestMessageID *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time

	// Связи. LatestMessage — слабая ссылка, только для выборки,
	// поэтому без FK-констрейнта (иначе цикл chats <-> messages)
	Members       []User   `gorm:"many2many:chat_members"`
	Admin         *User    `gorm:"foreignKey:AdminID"`
	LatestMessage *Message `gorm:"foreignKey:LatestMessageID;constraint:-"`
}
