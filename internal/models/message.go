package models

import (
	"time"
)

// MessageStatus 定義消息狀態的類型
type MessageStatus string

const (
	MessageStatusSent MessageStatus = "sent" // 已送出
	MessageStatusRead MessageStatus = "read" // 已讀
)

// Valid 檢查狀態是否為已知值
func (s MessageStatus) Valid() bool {
	return s == MessageStatusSent || s == MessageStatusRead
}

// Message 代表一條存放在聊天室歷史中的消息
// Content 與 Timestamp 建立後不再變動，只有 Status 會被更新
type Message struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	RoomID    string        `json:"roomId"`
	Content   string        `json:"content"`
	Status    MessageStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}
