package service

import (
	"errors"
	"log/slog"

	"chat_relay/internal/models"
	"chat_relay/internal/repository"
	"chat_relay/internal/storage"
)

type UserService struct {
	userRepo repository.UserRepository
	registry *Registry
	log      *slog.Logger
}

func NewUserService(userRepo repository.UserRepository, registry *Registry, log *slog.Logger) *UserService {
	return &UserService{userRepo: userRepo, registry: registry, log: log}
}

func (s *UserService) CreateUser(id, name string) (*models.User, error) {
	return s.userRepo.Create(id, name)
}

func (s *UserService) GetUser(id string) (*models.User, error) {
	return s.userRepo.FindByID(id)
}

func (s *UserService) ListUsers() []models.User {
	return s.userRepo.FindAll()
}

// FindOrCreate 回傳既有用戶，不存在時建立
// 已存在的用戶名稱不會被覆蓋
func (s *UserService) FindOrCreate(id, name string) (*models.User, error) {
	if user, err := s.userRepo.FindByID(id); err == nil {
		return user, nil
	}
	user, err := s.userRepo.Create(id, name)
	if errors.Is(err, storage.ErrConflict) {
		// 另一個連線同時建立了同一個用戶
		return s.userRepo.FindByID(id)
	}
	return user, err
}

// DeleteUser 刪除用戶並關閉該用戶所有的連線
func (s *UserService) DeleteUser(id string) error {
	if err := s.userRepo.Delete(id); err != nil {
		return err
	}
	for _, connID := range s.registry.ConnectionsFor(id) {
		if sink, ok := s.registry.Sink(connID); ok {
			if err := sink.Close(); err != nil {
				s.log.Debug("Error closing connection of deleted user", "connection_id", connID, "error", err)
			}
		}
	}
	s.log.Info("User deleted", "user_id", id)
	return nil
}
