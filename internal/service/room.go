package service

import (
	"errors"
	"fmt"
	"log/slog"

	"chat_relay/internal/models"
	"chat_relay/internal/repository"
	"chat_relay/internal/storage"
)

type RoomService struct {
	roomRepo       repository.RoomRepository
	userRepo       repository.UserRepository
	membershipRepo repository.MembershipRepository
	messageRepo    repository.MessageRepository
	router         *Router
	log            *slog.Logger
}

func NewRoomService(repos *repository.Repositories, router *Router, log *slog.Logger) *RoomService {
	return &RoomService{
		roomRepo:       repos.Room,
		userRepo:       repos.User,
		membershipRepo: repos.Membership,
		messageRepo:    repos.Message,
		router:         router,
		log:            log,
	}
}

func (s *RoomService) CreateRoom(id string) (*models.Room, error) {
	room, err := s.roomRepo.Create(id)
	if err != nil {
		return nil, err
	}
	s.log.Info("Room created", "room_id", id)
	return room, nil
}

// EnsureRoom 建立聊天室，已存在時直接回傳
func (s *RoomService) EnsureRoom(id string) (*models.Room, error) {
	room, err := s.roomRepo.Create(id)
	if errors.Is(err, storage.ErrConflict) {
		return s.roomRepo.FindByID(id)
	}
	return room, err
}

func (s *RoomService) GetRoom(id string) (*models.Room, error) {
	return s.roomRepo.FindByID(id)
}

func (s *RoomService) ListRooms() []models.Room {
	return s.roomRepo.FindAll()
}

// DeleteRoom 刪除聊天室，成員會先收到通知
func (s *RoomService) DeleteRoom(id string) error {
	if _, err := s.roomRepo.FindByID(id); err != nil {
		return err
	}
	s.router.Route(roomNotice(id, "", fmt.Sprintf("Room %s was closed", id)), id)
	if err := s.roomRepo.Delete(id); err != nil {
		return err
	}
	s.log.Info("Room deleted", "room_id", id)
	return nil
}

// JoinRoom 將用戶加入聊天室，新加入時通知聊天室內的成員
func (s *RoomService) JoinRoom(roomID, userID string) error {
	alreadyMember := s.membershipRepo.Exists(userID, roomID)
	if err := s.membershipRepo.Add(userID, roomID); err != nil {
		return err
	}
	if alreadyMember {
		return nil
	}
	name := s.displayName(userID)
	s.router.Route(roomNotice(roomID, name, name+" joined the room"), roomID)
	return nil
}

// LeaveRoom 將用戶移出聊天室並通知剩下的成員
func (s *RoomService) LeaveRoom(roomID, userID string) error {
	if err := s.membershipRepo.Remove(userID, roomID); err != nil {
		return err
	}
	name := s.displayName(userID)
	s.router.Route(roomNotice(roomID, name, name+" left the room"), roomID)
	return nil
}

func (s *RoomService) GetMembers(roomID string) ([]models.User, error) {
	if _, err := s.roomRepo.FindByID(roomID); err != nil {
		return nil, err
	}
	return s.membershipRepo.FindUsersByRoom(roomID), nil
}

func (s *RoomService) GetUserRooms(userID string) ([]models.Room, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, err
	}
	return s.membershipRepo.FindRoomsByUser(userID), nil
}

// GetMessages 回傳聊天室的歷史消息，依時間排序
func (s *RoomService) GetMessages(roomID string) ([]models.Message, error) {
	if _, err := s.roomRepo.FindByID(roomID); err != nil {
		return nil, err
	}
	return s.messageRepo.FindByRoomID(roomID), nil
}

func (s *RoomService) displayName(userID string) string {
	if user, err := s.userRepo.FindByID(userID); err == nil {
		return user.Name
	}
	return userID
}

func roomNotice(roomID, username, message string) models.Event {
	event := models.NewSystemEvent(username, message)
	event.RoomID = roomID
	return event
}
