package database

import (
	"github.com/google/uuid"
	"github.com/thereayou/letschat/internal/models"
	"gorm.io/gorm"
	"time"
)

// chatPreloads подгружает всё, что отдаётся наружу вместе с чатом.
// Пароли участников наружу не уходят, их обнуляет слой handlers.
func (d *Database) chatPreloads() *gorm.DB {
	return d.db.
		Preload("Members").
		Preload("Admin").
		Preload("LatestMessage").
		Preload("LatestMessage.Sender")
}

func (d *Database) CreateChat(chat *models.Chat) error {
	return d.db.Create(chat).Error
}

func (d *Database) GetChat(id string) (*models.Chat, error) {
	var chat models.Chat
	if err := d.chatPreloads().First(&chat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetUserChats возвращает все чаты пользователя,
// самые недавно обновлённые — первыми.
func (d *Database) GetUserChats(userID string) ([]models.Chat, error) {
	var chats []models.Chat

	err := d.chatPreloads().
		Joins("JOIN chat_members cm ON cm.chat_id = chats.id").
		Where("cm.user_id = ?", userID).
		Order("chats.updated_at DESC").
		Find(&chats).Error

	return chats, err
}

// GetOrCreateDirectChat ищет direct-чат между двумя пользователями
// и создаёт его, если такого ещё нет. Для любой пары пользователей
// существует не больше одного такого чата.
func (d *Database) GetOrCreateDirectChat(user1ID, user2ID uuid.UUID) (*models.Chat, error) {
	var chat models.Chat

	// Ищем существующий direct чат
	err := d.db.
		Joins("JOIN chat_members cm1 ON cm1.chat_id = chats.id").
		Joins("JOIN chat_members cm2 ON cm2.chat_id = chats.id").
		Where("chats.is_group = ? AND cm1.user_id = ? AND cm2.user_id = ?", false, user1ID, user2ID).
		First(&chat).Error

	if err == nil {
		return d.GetChat(chat.ID.String())
	}

	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	// Создаем новый чат. Создание и участники — одной транзакцией,
	// чтобы несуществующий собеседник не оставил чат-сироту
	chat = models.Chat{
		Name:      models.DirectChatName,
		IsGroup:   false,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	err = d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chat).Error; err != nil {
			return err
		}

		if err := appendMember(tx, user1ID.String(), &chat); err != nil {
			return err
		}

		return appendMember(tx, user2ID.String(), &chat)
	})
	if err != nil {
		return nil, err
	}

	return d.GetChat(chat.ID.String())
}

// CreateGroupChat создает групповой чат: создатель добавляется к
// переданному списку участников и назначается админом.
func (d *Database) CreateGroupChat(creatorID uuid.UUID, name string, memberIDs []string) (*models.Chat, error) {
	chat := models.Chat{
		Name:      name,
		IsGroup:   true,
		AdminID:   &creatorID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	// Одной транзакцией: неизвестный id в списке участников
	// откатывает и сам чат, и уже добавленных
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chat).Error; err != nil {
			return err
		}

		for _, memberID := range memberIDs {
			if memberID == creatorID.String() {
				continue
			}
			if err := appendMember(tx, memberID, &chat); err != nil {
				return err
			}
		}

		return appendMember(tx, creatorID.String(), &chat)
	})
	if err != nil {
		return nil, err
	}

	return d.GetChat(chat.ID.String())
}

// RenameChat переименовывает чат и возвращает его в полном виде.
func (d *Database) RenameChat(chatID, name string) (*models.Chat, error) {
	var chat models.Chat
	if err := d.db.First(&chat, "id = ?", chatID).Error; err != nil {
		return nil, err
	}

	chat.Name = name
	chat.UpdatedAt = time.Now()

	if err := d.db.Save(&chat).Error; err != nil {
		return nil, err
	}

	return d.GetChat(chatID)
}

// appendMember добавляет участника в чат в рамках переданного
// подключения или транзакции.
func appendMember(tx *gorm.DB, userID string, chat *models.Chat) error {
	var user models.User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	return tx.Model(chat).Association("Members").Append(&user)
}

// AddUserToChat добавляет участника. Повторное добавление уже
// состоящего в чате пользователя — no-op (upsert по составному ключу).
func (d *Database) AddUserToChat(userID, chatID string) error {
	var chat models.Chat
	if err := d.db.First(&chat, "id = ?", chatID).Error; err != nil {
		return err
	}

	return appendMember(d.db, userID, &chat)
}

// RemoveUserFromChat удаляет участника. Удаление пользователя,
// которого в чате нет, проходит молча.
func (d *Database) RemoveUserFromChat(userID, chatID string) error {
	var user models.User
	var chat models.Chat

	if err := d.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	if err := d.db.First(&chat, "id = ?", chatID).Error; err != nil {
		return err
	}

	return d.db.Model(&chat).Association("Members").Delete(&user)
}

// TouchLatestMessage сдвигает указатель на последнее сообщение
// и время обновления чата.
func (d *Database) TouchLatestMessage(chatID, messageID uuid.UUID) error {
	return d.db.Model(&models.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"latest_message_id": messageID,
			"updated_at":        time.Now(),
		}).Error
}

func (d *Database) DeleteChat(id string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		var chat models.Chat
		if err := tx.First(&chat, "id = ?", id).Error; err != nil {
			return err
		}

		// Сначала рвём слабую ссылку на последнее сообщение
		if err := tx.Model(&chat).Update("latest_message_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Message{}, "chat_id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Model(&chat).Association("Members").Clear(); err != nil {
			return err
		}

		return tx.Delete(&chat).Error
	})
}
