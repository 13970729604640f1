package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat_relay/internal/service"
)

// UserHandler 處理與用戶相關的請求
type UserHandler struct {
	userService *service.UserService
	roomService *service.RoomService
}

// NewUserHandler 創建一個新的 UserHandler 實例
func NewUserHandler(userService *service.UserService, roomService *service.RoomService) *UserHandler {
	return &UserHandler{userService: userService, roomService: roomService}
}

// CreateUserInput 定義創建用戶請求的結構
type CreateUserInput struct {
	ID   string `json:"id" binding:"required,max=128"`
	Name string `json:"name" binding:"required"`
}

// CreateUser 處理創建用戶的請求
func (h *UserHandler) CreateUser(c *gin.Context) {
	var input CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.CreateUser(input.ID, input.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.userService.ListUsers())
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser 刪除用戶，同時關閉該用戶的所有連線
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetUserRooms 回傳用戶加入的所有聊天室
func (h *UserHandler) GetUserRooms(c *gin.Context) {
	rooms, err := h.roomService.GetUserRooms(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rooms)
}
