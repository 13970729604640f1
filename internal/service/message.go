package service

import (
	"fmt"
	"log/slog"

	"chat_relay/internal/models"
	"chat_relay/internal/repository"
	"chat_relay/internal/storage"
	"chat_relay/internal/utils"
)

type MessageService struct {
	messageRepo    repository.MessageRepository
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	router         *Router
	log            *slog.Logger
}

func NewMessageService(repos *repository.Repositories, router *Router, log *slog.Logger) *MessageService {
	return &MessageService{
		messageRepo:    repos.Message,
		membershipRepo: repos.Membership,
		userRepo:       repos.User,
		router:         router,
		log:            log,
	}
}

// Send 儲存一條聊天消息並投遞給聊天室的成員
// 發送者必須是聊天室成員
func (s *MessageService) Send(userID, roomID, content string) (*models.Message, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if !s.membershipRepo.Exists(userID, roomID) {
		return nil, fmt.Errorf("user %q is not a member of room %q: %w", userID, roomID, storage.ErrNotFound)
	}

	message, err := s.messageRepo.Create(utils.NewID(), userID, roomID, content)
	if err != nil {
		return nil, err
	}
	s.router.Route(models.NewChatEvent(user.Name, *message), roomID)
	return message, nil
}

func (s *MessageService) GetMessage(id string) (*models.Message, error) {
	return s.messageRepo.FindByID(id)
}

// UpdateStatus 更新消息狀態
// 不限制狀態轉換的方向，read 也可以改回 sent
func (s *MessageService) UpdateStatus(id string, status models.MessageStatus) (*models.Message, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, ErrInvalidStatus)
	}
	if err := s.messageRepo.UpdateStatus(id, status); err != nil {
		return nil, err
	}
	return s.messageRepo.FindByID(id)
}
