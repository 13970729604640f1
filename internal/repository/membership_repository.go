package repository

import (
	"fmt"

	"chat_relay/internal/models"
	"chat_relay/internal/storage"
)

type MembershipRepository interface {
	Add(userID, roomID string) error
	Remove(userID, roomID string) error
	Exists(userID, roomID string) bool
	FindUsersByRoom(roomID string) []models.User
	FindRoomsByUser(userID string) []models.Room
}

type membershipRepository struct {
	db *storage.MemoryStore
}

func NewMembershipRepository(db *storage.MemoryStore) MembershipRepository {
	return &membershipRepository{db: db}
}

// Add 加入成員關係，用戶或聊天室不存在時回傳 ErrNotFound
func (r *membershipRepository) Add(userID, roomID string) error {
	if !r.db.AddMembership(userID, roomID) {
		return fmt.Errorf("user %q or room %q: %w", userID, roomID, storage.ErrNotFound)
	}
	return nil
}

func (r *membershipRepository) Remove(userID, roomID string) error {
	if !r.db.RemoveMembership(userID, roomID) {
		return fmt.Errorf("membership %q in %q: %w", userID, roomID, storage.ErrNotFound)
	}
	return nil
}

func (r *membershipRepository) Exists(userID, roomID string) bool {
	return r.db.IsMember(userID, roomID)
}

func (r *membershipRepository) FindUsersByRoom(roomID string) []models.User {
	return r.db.RoomMembers(roomID)
}

func (r *membershipRepository) FindRoomsByUser(userID string) []models.Room {
	return r.db.UserRooms(userID)
}
