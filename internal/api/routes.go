package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat_relay/internal/api/handlers"
	"chat_relay/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services, allowedOrigins []string, log *slog.Logger) {
	// 初始化 handlers
	userHandler := handlers.NewUserHandler(services.User, services.Room)
	roomHandler := handlers.NewRoomHandler(services.Room, services.Message)
	messageHandler := handlers.NewMessageHandler(services.Message)
	wsHandler := handlers.NewWebSocketHandler(services.WebSocket, allowedOrigins, log)

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// WebSocket 連接點
	r.GET("/ws", wsHandler.HandleWebSocket)

	api := r.Group("/api")
	{
		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":      "ok",
				"connections": services.Registry.Count(),
				"delivery":    services.Router.Stats(),
			})
		})

		users := api.Group("/users")
		{
			users.POST("", userHandler.CreateUser)
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
			users.DELETE("/:id", userHandler.DeleteUser)
			users.GET("/:id/rooms", userHandler.GetUserRooms)
		}

		rooms := api.Group("/rooms")
		{
			// 基本操作
			rooms.POST("", roomHandler.CreateRoom)
			rooms.GET("", roomHandler.ListRooms)
			rooms.GET("/:id", roomHandler.GetRoom)
			rooms.DELETE("/:id", roomHandler.DeleteRoom)

			// 成員
			rooms.GET("/:id/members", roomHandler.GetMembers)
			rooms.POST("/:id/members", roomHandler.JoinRoom)
			rooms.DELETE("/:id/members/:userId", roomHandler.LeaveRoom)

			// 消息
			rooms.GET("/:id/messages", roomHandler.GetMessages)
			rooms.POST("/:id/messages", roomHandler.PostMessage)
		}

		messages := api.Group("/messages")
		{
			messages.GET("/:id", messageHandler.GetMessage)
			messages.PATCH("/:id/status", messageHandler.UpdateStatus)
		}
	}
}
