package repository

import (
	"fmt"

	"chat_relay/internal/models"
	"chat_relay/internal/storage"
)

type UserRepository interface {
	Create(id, name string) (*models.User, error)
	FindByID(id string) (*models.User, error)
	FindAll() []models.User
	Delete(id string) error
}

type userRepository struct {
	db *storage.MemoryStore
}

func NewUserRepository(db *storage.MemoryStore) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(id, name string) (*models.User, error) {
	user, err := r.db.CreateUser(id, name)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(id string) (*models.User, error) {
	user, ok := r.db.GetUser(id)
	if !ok {
		return nil, fmt.Errorf("user %q: %w", id, storage.ErrNotFound)
	}
	return &user, nil
}

func (r *userRepository) FindAll() []models.User {
	return r.db.ListUsers()
}

func (r *userRepository) Delete(id string) error {
	if !r.db.DeleteUser(id) {
		return fmt.Errorf("user %q: %w", id, storage.ErrNotFound)
	}
	return nil
}
