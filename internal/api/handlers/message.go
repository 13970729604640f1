package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat_relay/internal/models"
	"chat_relay/internal/service"
)

// MessageHandler 處理單一消息的查詢與狀態更新
type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) GetMessage(c *gin.Context) {
	message, err := h.messageService.GetMessage(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, message)
}

// UpdateStatus 處理消息狀態更新，status 只接受 sent 或 read
func (h *MessageHandler) UpdateStatus(c *gin.Context) {
	var input struct {
		Status models.MessageStatus `json:"status" binding:"required,oneof=sent read"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messageService.UpdateStatus(c.Param("id"), input.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, message)
}
