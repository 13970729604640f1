package repository

import "chat_relay/internal/storage"

type Repositories struct {
	User       UserRepository
	Room       RoomRepository
	Message    MessageRepository
	Membership MembershipRepository
}

func NewRepositories(db *storage.MemoryStore) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Room:       NewRoomRepository(db),
		Message:    NewMessageRepository(db),
		Membership: NewMembershipRepository(db),
	}
}
