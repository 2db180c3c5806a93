package server

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/letschat/internal/handlers"
	"github.com/thereayou/letschat/internal/middleware"
	"github.com/thereayou/letschat/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
	authH *handlers.AuthHandler,
	userH *handlers.UserHandler,
	chatH *handlers.ChatHandler,
	messageH *handlers.MessageHandler,
	wsH *handlers.WebSocketHandler,
) {
	// Auth endpoints
	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/logout", authH.Logout)
	}

	authRequired := middleware.AuthMiddleware(jwtMgr, rdb)

	// User endpoints
	userGroup := r.Group("/api/v1/user", authRequired)
	{
		userGroup.GET("/me", userH.GetMe)
		userGroup.PATCH("/me", userH.UpdateMe)
		userGroup.GET("/search", userH.SearchUsers)
		userGroup.GET("/:id", userH.GetUser)
	}

	// Chat endpoints
	chatGroup := r.Group("/api/v1/chat", authRequired)
	{
		chatGroup.GET("/", chatH.GetMyChats)
		chatGroup.POST("/createGroup", chatH.CreateGroup)
		chatGroup.PATCH("/renameGroup", chatH.RenameGroup)
		chatGroup.PATCH("/addUserToGroup", chatH.AddUserToGroup)
		chatGroup.PATCH("/removeFromGroup", chatH.RemoveFromGroup)
		chatGroup.GET("/:userId", chatH.GetOrCreateDirectChat)
		chatGroup.DELETE("/:chatId", chatH.DeleteGroup)
	}

	// Message endpoints
	messageGroup := r.Group("/api/v1/message", authRequired)
	{
		messageGroup.POST("/", messageH.SendMessage)
		messageGroup.GET("/:chatId", messageH.GetChatMessages)
	}

	// WebSocket
	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, rdb), wsH.HandleWebSocket)
}
