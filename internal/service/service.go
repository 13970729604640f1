package service

import (
	"fmt"
	"log/slog"

	"chat_relay/internal/repository"
)

// Options 是服務層的執行參數
type Options struct {
	LobbyRoom          string // 所有已識別用戶自動加入的聊天室，空字串表示停用
	AnnounceDepartures bool   // 連線關閉時是否廣播離線通知
	Client             ClientConfig
}

type Services struct {
	User      *UserService
	Room      *RoomService
	Message   *MessageService
	Presence  *Presence
	Router    *Router
	Registry  *Registry
	WebSocket *WebSocketService
}

func NewServices(repos *repository.Repositories, opts Options, log *slog.Logger) (*Services, error) {
	registry := NewRegistry()
	router := NewRouter(registry, repos.Membership, log.With("component", "router"))

	userService := NewUserService(repos.User, registry, log)
	roomService := NewRoomService(repos, router, log)
	messageService := NewMessageService(repos, router, log)
	presence := NewPresence(registry, router, userService, roomService, messageService,
		repos.Membership, opts, log.With("component", "presence"))
	wsService := NewWebSocketService(presence, opts.Client, log.With("component", "websocket"))

	if opts.LobbyRoom != "" {
		if _, err := roomService.EnsureRoom(opts.LobbyRoom); err != nil {
			return nil, fmt.Errorf("create lobby room %q: %w", opts.LobbyRoom, err)
		}
	}

	return &Services{
		User:      userService,
		Room:      roomService,
		Message:   messageService,
		Presence:  presence,
		Router:    router,
		Registry:  registry,
		WebSocket: wsService,
	}, nil
}
