package utils

import (
	"github.com/google/uuid"
)

// NewID 生成一個新的唯一識別碼，用於連線與伺服器產生的消息
func NewID() string {
	return uuid.NewString()
}
