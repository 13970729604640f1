package models

// User 表示聊天系統中的用戶，建立後不可修改
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
