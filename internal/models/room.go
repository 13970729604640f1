package models

// Room 表示一個聊天室
type Room struct {
	ID string `json:"id"`
}

