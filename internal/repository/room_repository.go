package repository

import (
	"fmt"

	"chat_relay/internal/models"
	"chat_relay/internal/storage"
)

type RoomRepository interface {
	Create(id string) (*models.Room, error)
	FindByID(id string) (*models.Room, error)
	Delete(id string) error
	FindAll() []models.Room // 依 id 排序
}

type roomRepository struct {
	db *storage.MemoryStore
}

func NewRoomRepository(db *storage.MemoryStore) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(id string) (*models.Room, error) {
	room, err := r.db.CreateRoom(id)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) FindByID(id string) (*models.Room, error) {
	room, ok := r.db.GetRoom(id)
	if !ok {
		return nil, fmt.Errorf("room %q: %w", id, storage.ErrNotFound)
	}
	return &room, nil
}

func (r *roomRepository) Delete(id string) error {
	if !r.db.DeleteRoom(id) {
		return fmt.Errorf("room %q: %w", id, storage.ErrNotFound)
	}
	return nil
}

// FindAll 查詢所有聊天室
func (r *roomRepository) FindAll() []models.Room {
	return r.db.ListRooms()
}
