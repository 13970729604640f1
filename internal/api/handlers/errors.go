package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat_relay/internal/service"
	"chat_relay/internal/storage"
)

// respondError 將服務層錯誤轉換為對應的 HTTP 狀態碼
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "伺服器內部錯誤"})
	}
}
