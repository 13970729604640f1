package repository

import (
	"fmt"

	"chat_relay/internal/models"
	"chat_relay/internal/storage"
)

type MessageRepository interface {
	Create(id, userID, roomID, content string) (*models.Message, error)
	FindByID(id string) (*models.Message, error)
	FindByRoomID(roomID string) []models.Message
	UpdateStatus(id string, status models.MessageStatus) error
}

type messageRepository struct {
	db *storage.MemoryStore
}

func NewMessageRepository(db *storage.MemoryStore) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(id, userID, roomID, content string) (*models.Message, error) {
	message, err := r.db.CreateMessage(id, userID, roomID, content)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) FindByID(id string) (*models.Message, error) {
	message, ok := r.db.GetMessage(id)
	if !ok {
		return nil, fmt.Errorf("message %q: %w", id, storage.ErrNotFound)
	}
	return &message, nil
}

// FindByRoomID 依時間戳升冪回傳聊天室的消息
func (r *messageRepository) FindByRoomID(roomID string) []models.Message {
	return r.db.RoomMessages(roomID)
}

func (r *messageRepository) UpdateStatus(id string, status models.MessageStatus) error {
	if !r.db.UpdateMessageStatus(id, status) {
		return fmt.Errorf("message %q: %w", id, storage.ErrNotFound)
	}
	return nil
}
