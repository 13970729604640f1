package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat_relay/internal/service"
)

// RoomHandler 處理與聊天室相關的請求
type RoomHandler struct {
	roomService    *service.RoomService
	messageService *service.MessageService
}

// NewRoomHandler 創建一個新的 RoomHandler 實例
func NewRoomHandler(roomService *service.RoomService, messageService *service.MessageService) *RoomHandler {
	return &RoomHandler{roomService: roomService, messageService: messageService}
}

// CreateRoom 處理創建新聊天室的請求
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var input struct {
		ID string `json:"id" binding:"required,max=128"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.roomService.CreateRoom(input.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.roomService.ListRooms())
}

// GetRoom 處理獲取聊天室訊息的請求
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.roomService.GetRoom(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// DeleteRoom 刪除聊天室及其所有消息
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	if err := h.roomService.DeleteRoom(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RoomHandler) GetMembers(c *gin.Context) {
	members, err := h.roomService.GetMembers(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

// JoinRoom 處理將用戶加入聊天室的請求
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var input struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.roomService.JoinRoom(c.Param("id"), input.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "成功加入聊天室"})
}

// LeaveRoom 處理將用戶移出聊天室的請求
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	if err := h.roomService.LeaveRoom(c.Param("id"), c.Param("userId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "成功離開聊天室"})
}

// GetMessages 回傳聊天室的歷史消息
func (h *RoomHandler) GetMessages(c *gin.Context) {
	messages, err := h.roomService.GetMessages(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// PostMessage 儲存一條消息並投遞給聊天室的成員
func (h *RoomHandler) PostMessage(c *gin.Context) {
	var input struct {
		UserID  string `json:"userId" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messageService.Send(input.UserID, c.Param("id"), input.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}
