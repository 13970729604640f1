package models

import (
	"time"
)

// EventType 定義 WebSocket 事件的類型
type EventType string

const (
	EventUserConnect EventType = "user-connect" // 身份識別
	EventChat        EventType = "chat"         // 聊天訊息
	EventSystem      EventType = "system"       // 系統通知
	EventJoinRoom    EventType = "join-room"    // 加入聊天室
	EventLeaveRoom   EventType = "leave-room"   // 離開聊天室
)

// Event 是 WebSocket 上傳輸的統一消息結構，進出兩個方向都使用
type Event struct {
	Type      EventType `json:"type" validate:"required,oneof=user-connect chat system join-room leave-room"`
	Username  string    `json:"username"`
	UserID    string    `json:"userId,omitempty"`
	RoomID    string    `json:"roomId,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// IdentifyEvent 是 user-connect 事件必須滿足的欄位，username 可省略
type IdentifyEvent struct {
	UserID string `validate:"required,max=128"`
}

// ChatEvent 是 chat 事件必須滿足的欄位
type ChatEvent struct {
	Message string `validate:"required"`
}

// RoomEvent 是 join-room / leave-room 事件必須滿足的欄位
type RoomEvent struct {
	RoomID string `validate:"required"`
}

// NewSystemEvent 創建一個新的系統事件
func NewSystemEvent(username, message string) Event {
	return Event{
		Type:      EventSystem,
		Username:  username,
		Message:   message,
		Timestamp: FormatTimestamp(time.Now()),
	}
}

// NewUserConnectEvent 創建一個用戶上線通知
func NewUserConnectEvent(user User) Event {
	return Event{
		Type:      EventUserConnect,
		Username:  user.Name,
		UserID:    user.ID,
		Message:   user.Name + " joined the chat",
		Timestamp: FormatTimestamp(time.Now()),
	}
}

// NewChatEvent 根據已儲存的消息創建一個聊天事件
func NewChatEvent(username string, msg Message) Event {
	return Event{
		Type:      EventChat,
		Username:  username,
		UserID:    msg.UserID,
		RoomID:    msg.RoomID,
		MessageID: msg.ID,
		Message:   msg.Content,
		Timestamp: FormatTimestamp(msg.Timestamp),
	}
}

// FormatTimestamp 以 RFC3339 (UTC) 格式輸出時間
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ConnState 表示單一連線在協議上的狀態
type ConnState int

const (
	ConnAnonymous  ConnState = iota // 尚未識別
	ConnIdentified                  // 已綁定用戶
	ConnClosed                      // 已關閉
)

func (s ConnState) String() string {
	switch s {
	case ConnAnonymous:
		return "anonymous"
	case ConnIdentified:
		return "identified"
	case ConnClosed:
		return "closed"
	default:
		return "unknown"
	}
}
