package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/letschat/internal/database"
	"github.com/thereayou/letschat/internal/handlers/dto"
	"github.com/thereayou/letschat/internal/middleware"
	"github.com/thereayou/letschat/internal/models"
	"gorm.io/gorm"
)

type MessageHandler struct {
	db *database.Database
}

func NewMessageHandler(db *database.Database) *MessageHandler {
	return &MessageHandler{db: db}
}

// SendMessage сохраняет сообщение и сдвигает latestMessage чата.
// Доставка уведомления идет отдельным событием new-message от клиента
// и с сохранением никак не связана.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.db.GetChat(req.ChatID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}

	if !isChatMember(chat, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this chat"})
		return
	}

	message := &models.Message{
		ChatID:    chat.ID,
		SenderID:  userID,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	if err := h.db.SaveMessage(message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
		return
	}

	full, err := h.db.GetMessage(message.ID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load message"})
		return
	}

	go h.db.UpdateLastSeen(userID.String())

	c.JSON(http.StatusCreated, formatMessageResponse(full))
}

// GetChatMessages получает историю сообщений чата
func (h *MessageHandler) GetChatMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	chatID := c.Param("chatId")

	chat, err := h.db.GetChat(chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat"})
		return
	}

	if !isChatMember(chat, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this chat"})
		return
	}

	// Параметры пагинации
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var beforeID *uuid.UUID
	if before := c.Query("before"); before != "" {
		if id, err := uuid.Parse(before); err == nil {
			beforeID = &id
		}
	}

	messages, err := h.db.GetChatMessages(chatID, limit, beforeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	response := make([]dto.MessageResponse, len(messages))
	for i := range messages {
		response[i] = formatMessageResponse(&messages[i])
	}

	c.JSON(http.StatusOK, gin.H{"messages": response})
}

func isChatMember(chat *models.Chat, userID uuid.UUID) bool {
	for _, member := range chat.Members {
		if member.ID == userID {
			return true
		}
	}
	return false
}

func formatMessageResponse(message *models.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:        message.ID,
		ChatID:    message.ChatID,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
		Sender: dto.UserInfo{
			ID:        message.Sender.ID,
			Username:  message.Sender.Username,
			FullName:  message.Sender.FullName,
			AvatarURL: message.Sender.AvatarURL,
		},
	}
}
