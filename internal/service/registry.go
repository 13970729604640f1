package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"

	"chat_relay/internal/models"
)

// Sink 是一個連線的投遞端點
// Deliver 不可阻塞，失敗時回傳錯誤；Close 可重複呼叫
type Sink interface {
	Deliver(payload []byte) error
	Close() error
}

// Binding 記錄連線與用戶之間的綁定
type Binding struct {
	ConnectionID string
	UserID       string
	JoinedAt     time.Time
}

// Recipient 是廣播快照中的一個收件者
type Recipient struct {
	ConnectionID string
	UserID       string
	Sink         Sink
}

type connection struct {
	sink     Sink
	userID   string
	joinedAt time.Time
}

// Registry 追蹤所有開啟中的連線以及它們的用戶綁定
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*connection
	byUser map[string]map[string]struct{} // userID -> connectionIDs
	now    func() time.Time
}

// NewRegistry 創建一個空的連線註冊表
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]*connection),
		byUser: make(map[string]map[string]struct{}),
		now:    time.Now,
	}
}

// Register 以未識別狀態接納一個新連線
// 相同 id 重複註冊時保留原本的連線
func (r *Registry) Register(connID string, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[connID]; exists {
		return
	}
	r.conns[connID] = &connection{sink: sink}
}

// Bind 將連線綁定到用戶
// 已綁定到其他用戶時回傳 ErrAlreadyBound，綁定到同一用戶則不做任何事
func (r *Registry) Bind(connID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return fmt.Errorf("bind %q: %w", connID, ErrUnknownConnection)
	}
	if conn.userID != "" {
		if conn.userID == userID {
			return nil
		}
		return fmt.Errorf("bind %q to %q (bound to %q): %w", connID, userID, conn.userID, ErrAlreadyBound)
	}

	conn.userID = userID
	conn.joinedAt = r.now()
	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[string]struct{})
	}
	r.byUser[userID][connID] = struct{}{}
	return nil
}

// Unregister 移除連線，回傳其綁定的用戶 id（若有）
// 連線不存在時 ok 為 false
func (r *Registry) Unregister(connID string) (userID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, exists := r.conns[connID]
	if !exists {
		return "", false
	}
	delete(r.conns, connID)
	if conn.userID != "" {
		if sessions, ok := r.byUser[conn.userID]; ok {
			delete(sessions, connID)
			if len(sessions) == 0 {
				delete(r.byUser, conn.userID)
			}
		}
	}
	return conn.userID, true
}

// ConnectionsFor 回傳用戶所有的連線 id
func (r *Registry) ConnectionsFor(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Keys(r.byUser[userID])
}

// Binding 查詢連線的綁定
func (r *Registry) Binding(connID string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connID]
	if !ok || conn.userID == "" {
		return Binding{}, false
	}
	return Binding{ConnectionID: connID, UserID: conn.userID, JoinedAt: conn.joinedAt}, true
}

// State 回傳連線目前的協議狀態，未註冊的連線視為已關閉
func (r *Registry) State(connID string) models.ConnState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connID]
	switch {
	case !ok:
		return models.ConnClosed
	case conn.userID == "":
		return models.ConnAnonymous
	default:
		return models.ConnIdentified
	}
}

// Sink 查詢連線的投遞端點，不論是否已識別
func (r *Registry) Sink(connID string) (Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	return conn.sink, true
}

// Count 回傳目前註冊的連線數量，包含未識別的連線
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// Snapshot 回傳所有已識別連線的副本，exclude 指定的連線除外
func (r *Registry) Snapshot(exclude string) []Recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recipients := make([]Recipient, 0, len(r.conns))
	for connID, conn := range r.conns {
		if connID == exclude || conn.userID == "" {
			continue
		}
		recipients = append(recipients, Recipient{ConnectionID: connID, UserID: conn.userID, Sink: conn.sink})
	}
	return recipients
}

// RecipientsFor 在同一次讀鎖內解析多個用戶的所有連線
func (r *Registry) RecipientsFor(userIDs []string) []Recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var recipients []Recipient
	for _, userID := range userIDs {
		for connID := range r.byUser[userID] {
			recipients = append(recipients, Recipient{ConnectionID: connID, UserID: userID, Sink: r.conns[connID].sink})
		}
	}
	return recipients
}

// All 回傳所有連線的投遞端點，包含未識別的連線，用於關閉服務
func (r *Registry) All() []Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]Sink, 0, len(r.conns))
	for _, conn := range r.conns {
		sinks = append(sinks, conn.sink)
	}
	return sinks
}
