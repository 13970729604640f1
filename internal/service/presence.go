package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"chat_relay/internal/models"
	"chat_relay/internal/repository"
)

// Presence 管理每個連線的狀態: Anonymous -> Identified -> Closed
// 並負責身份識別、進出聊天室以及上下線通知
type Presence struct {
	registry   *Registry
	router     *Router
	users      *UserService
	rooms      *RoomService
	messages   *MessageService
	membership repository.MembershipRepository
	validate   *validator.Validate
	log        *slog.Logger

	lobby              string
	announceDepartures bool
}

func NewPresence(registry *Registry, router *Router, users *UserService, rooms *RoomService,
	messages *MessageService, membership repository.MembershipRepository, opts Options, log *slog.Logger) *Presence {
	return &Presence{
		registry:           registry,
		router:             router,
		users:              users,
		rooms:              rooms,
		messages:           messages,
		membership:         membership,
		validate:           validator.New(),
		log:                log,
		lobby:              opts.LobbyRoom,
		announceDepartures: opts.AnnounceDepartures,
	}
}

// Connect 以未識別狀態接納連線並送出歡迎訊息
func (p *Presence) Connect(connID string, sink Sink) {
	p.registry.Register(connID, sink)
	p.log.Info("Connection established", "connection_id", connID, "connections", p.registry.Count())
	p.router.SendTo(connID, models.NewSystemEvent("", "successfully connected"))
}

// State 回傳連線目前的狀態
func (p *Presence) State(connID string) models.ConnState {
	return p.registry.State(connID)
}

// HandleEvent 解析並處理一個來自連線的原始事件
// 回傳的錯誤只供記錄，不會導致連線關閉
// 未識別的連線送來非 user-connect 事件時直接丟棄，不回應也不報錯
func (p *Presence) HandleEvent(connID string, raw []byte) error {
	var event models.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("decode event: %v: %w", err, ErrProtocol)
	}
	if err := p.validate.Struct(event); err != nil {
		return fmt.Errorf("invalid event: %v: %w", err, ErrProtocol)
	}

	if event.Type != models.EventUserConnect && p.registry.State(connID) != models.ConnIdentified {
		p.log.Debug("Dropping event from anonymous connection", "connection_id", connID, "type", event.Type)
		return nil
	}

	switch event.Type {
	case models.EventUserConnect:
		return p.Identify(connID, event)
	case models.EventChat:
		return p.chat(connID, event)
	case models.EventJoinRoom:
		return p.JoinRoom(connID, event.RoomID)
	case models.EventLeaveRoom:
		return p.LeaveRoom(connID, event.RoomID)
	default:
		return fmt.Errorf("event type %q not accepted from clients: %w", event.Type, ErrProtocol)
	}
}

// Identify 將連線綁定到用戶，用戶不存在時建立
// 以既有的 id 重新連線會綁定到原本的用戶
func (p *Presence) Identify(connID string, event models.Event) error {
	if err := p.validate.Struct(models.IdentifyEvent{UserID: event.UserID}); err != nil {
		return fmt.Errorf("identify: %v: %w", err, ErrProtocol)
	}
	if binding, ok := p.registry.Binding(connID); ok {
		if binding.UserID == event.UserID {
			return nil
		}
		return fmt.Errorf("identify as %q: %w", event.UserID, ErrAlreadyBound)
	}

	name := event.Username
	if name == "" {
		name = event.UserID
	}
	user, err := p.users.FindOrCreate(event.UserID, name)
	if err != nil {
		return fmt.Errorf("identify: %w", err)
	}
	if err := p.registry.Bind(connID, user.ID); err != nil {
		return err
	}
	// 用戶可能在查詢與綁定之間被刪除，此時 DeleteUser 看不到這個連線
	if _, err := p.users.GetUser(user.ID); err != nil {
		p.drop(connID)
		return fmt.Errorf("identify as %q: %w", user.ID, err)
	}
	if p.lobby != "" {
		if err := p.membership.Add(user.ID, p.lobby); err != nil {
			p.log.Warn("Could not join lobby", "user_id", user.ID, "room_id", p.lobby, "error", err)
		}
	}

	p.log.Info("Connection identified", "connection_id", connID, "user_id", user.ID)
	p.router.Broadcast(models.NewUserConnectEvent(*user), connID)
	return nil
}

// JoinRoom 將連線的用戶加入聊天室
func (p *Presence) JoinRoom(connID, roomID string) error {
	binding, err := p.binding(connID)
	if err != nil {
		return err
	}
	if err := p.validate.Struct(models.RoomEvent{RoomID: roomID}); err != nil {
		return fmt.Errorf("join room: %v: %w", err, ErrProtocol)
	}
	return p.rooms.JoinRoom(roomID, binding.UserID)
}

// LeaveRoom 將連線的用戶移出聊天室
func (p *Presence) LeaveRoom(connID, roomID string) error {
	binding, err := p.binding(connID)
	if err != nil {
		return err
	}
	if err := p.validate.Struct(models.RoomEvent{RoomID: roomID}); err != nil {
		return fmt.Errorf("leave room: %v: %w", err, ErrProtocol)
	}
	return p.rooms.LeaveRoom(roomID, binding.UserID)
}

// Disconnect 移除連線，已識別的連線依設定廣播離線通知
func (p *Presence) Disconnect(connID string) {
	userID, ok := p.registry.Unregister(connID)
	if !ok {
		return
	}
	p.log.Info("Connection closed", "connection_id", connID, "user_id", userID, "connections", p.registry.Count())
	if userID == "" || !p.announceDepartures {
		return
	}

	name := userID
	if user, err := p.users.GetUser(userID); err == nil {
		name = user.Name
	}
	p.router.Broadcast(models.NewSystemEvent(name, name+" left the chat"), "")
}

// CloseAll 關閉所有連線，包含未識別的連線
func (p *Presence) CloseAll() int {
	sinks := p.registry.All()
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			p.log.Debug("Error closing connection during shutdown", "error", err)
		}
	}
	return len(sinks)
}

func (p *Presence) chat(connID string, event models.Event) error {
	binding, err := p.binding(connID)
	if err != nil {
		return err
	}
	if err := p.validate.Struct(models.ChatEvent{Message: event.Message}); err != nil {
		return fmt.Errorf("chat: %v: %w", err, ErrProtocol)
	}
	roomID := event.RoomID
	if roomID == "" {
		roomID = p.lobby
	}
	if roomID == "" {
		return fmt.Errorf("chat without room and no lobby configured: %w", ErrProtocol)
	}
	_, err = p.messages.Send(binding.UserID, roomID, event.Message)
	return err
}

// drop 移除並關閉連線，不廣播離線通知
func (p *Presence) drop(connID string) {
	sink, ok := p.registry.Sink(connID)
	if _, removed := p.registry.Unregister(connID); !removed || !ok {
		return
	}
	if err := sink.Close(); err != nil {
		p.log.Debug("Error closing dropped connection", "connection_id", connID, "error", err)
	}
}

func (p *Presence) binding(connID string) (Binding, error) {
	binding, ok := p.registry.Binding(connID)
	if !ok {
		return Binding{}, fmt.Errorf("connection %q: %w", connID, ErrNotIdentified)
	}
	return binding, nil
}

// IsProtocolError 判斷錯誤是否屬於可忽略的協議錯誤
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrProtocol)
}
