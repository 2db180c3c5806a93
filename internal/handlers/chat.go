package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/letschat/internal/database"
	"github.com/thereayou/letschat/internal/handlers/dto"
	"github.com/thereayou/letschat/internal/middleware"
	"github.com/thereayou/letschat/internal/models"
	"github.com/thereayou/letschat/internal/websocket"
	"gorm.io/gorm"
)

type ChatHandler struct {
	db  *database.Database
	hub *websocket.Hub
}

func NewChatHandler(db *database.Database, hub *websocket.Hub) *ChatHandler {
	return &ChatHandler{db: db, hub: hub}
}

// GetOrCreateDirectChat находит direct-чат с указанным пользователем
// или создает его, если переписки еще не было.
func (h *ChatHandler) GetOrCreateDirectChat(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	targetUserID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if userID == targetUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot create direct chat with yourself"})
		return
	}

	chat, err := h.db.GetOrCreateDirectChat(userID, targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create direct chat"})
		return
	}

	c.JSON(http.StatusOK, formatChatResponse(chat))
}

// GetMyChats возвращает чаты пользователя, недавно обновленные первыми
func (h *ChatHandler) GetMyChats(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	chats, err := h.db.GetUserChats(userID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get chats"})
		return
	}

	online := make(map[uuid.UUID]bool)
	for _, id := range h.hub.GetOnlineUsers() {
		online[id] = true
	}

	response := make([]gin.H, len(chats))
	for i := range chats {
		response[i] = formatChatResponse(&chats[i])

		// Сколько участников сейчас на связи
		count := 0
		for _, member := range chats[i].Members {
			if online[member.ID] {
				count++
			}
		}
		response[i]["online_count"] = count
	}

	c.JSON(http.StatusOK, response)
}

// CreateGroup создает групповой чат. Помимо создателя нужно минимум
// два участника, создатель добавляется сам и становится админом.
func (h *ChatHandler) CreateGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Users) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "more than 2 users are required to form a group chat"})
		return
	}

	chat, err := h.db.CreateGroupChat(userID, req.Name, req.Users)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group chat"})
		return
	}

	c.JSON(http.StatusOK, formatChatResponse(chat))
}

// RenameGroup переименовывает чат
func (h *ChatHandler) RenameGroup(c *gin.Context) {
	var req dto.RenameGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.db.RenameChat(req.ChatID, req.ChatName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rename chat"})
		return
	}

	c.JSON(http.StatusOK, formatChatResponse(chat))
}

// AddUserToGroup добавляет участника в групповой чат.
// Повторное добавление уже состоящего участника — no-op.
func (h *ChatHandler) AddUserToGroup(c *gin.Context) {
	var req dto.GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutateMembership(c, req, h.db.AddUserToChat)
}

// RemoveFromGroup удаляет участника из группового чата.
// Удаление отсутствующего участника проходит молча.
func (h *ChatHandler) RemoveFromGroup(c *gin.Context) {
	var req dto.GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutateMembership(c, req, h.db.RemoveUserFromChat)
}

// DeleteGroup распускает групповой чат вместе с историей.
// Доступно только админу группы.
func (h *ChatHandler) DeleteGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	chatID := c.Param("chatId")

	chat, err := h.db.GetChat(chatID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}

	if !chat.IsGroup {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete direct chat"})
		return
	}

	if chat.AdminID == nil || *chat.AdminID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only group admin can delete chat"})
		return
	}

	if err := h.db.DeleteChat(chatID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "chat deleted"})
}

func (h *ChatHandler) mutateMembership(c *gin.Context, req dto.GroupMemberRequest, op func(userID, chatID string) error) {
	if err := op(req.UserID, req.ChatID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat or user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update group members"})
		return
	}

	chat, err := h.db.GetChat(req.ChatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat"})
		return
	}

	c.JSON(http.StatusOK, formatChatResponse(chat))
}

// formatChatResponse форматирует ответ для чата.
// Чувствительные поля участников (hash пароля) наружу не уходят.
func formatChatResponse(chat *models.Chat) gin.H {
	members := make([]gin.H, len(chat.Members))
	for i, member := range chat.Members {
		members[i] = formatUserInfo(&member)
	}

	response := gin.H{
		"id":         chat.ID,
		"name":       chat.Name,
		"isGroup":    chat.IsGroup,
		"created_at": chat.CreatedAt,
		"updated_at": chat.UpdatedAt,
		"members":    members,
	}

	if chat.Admin != nil {
		response["admin"] = formatUserInfo(chat.Admin)
	}

	if chat.LatestMessage != nil {
		response["latestMessage"] = gin.H{
			"id":         chat.LatestMessage.ID,
			"chatId":     chat.LatestMessage.ChatID,
			"content":    chat.LatestMessage.Content,
			"created_at": chat.LatestMessage.CreatedAt,
			"sender":     formatUserInfo(&chat.LatestMessage.Sender),
		}
	}

	return response
}

func formatUserInfo(user *models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"fullName":   user.FullName,
		"email":      user.Email,
		"avatar_url": user.AvatarURL,
	}
}
