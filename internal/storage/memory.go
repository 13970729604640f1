package storage

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"chat_relay/internal/models"
)

var (
	// ErrConflict 表示建立時 id 已經存在
	ErrConflict = errors.New("storage: id already exists")
	// ErrNotFound 表示引用的用戶或聊天室不存在
	ErrNotFound = errors.New("storage: not found")
)

type set map[string]struct{}

// storedMessage 在消息之外記錄插入順序，用於時間相同時的排序
type storedMessage struct {
	models.Message
	seq uint64
}

// MemoryStore 是用戶、聊天室、成員關係與消息的唯一權威記錄
// 所有 map 都由同一把讀寫鎖保護，對外只回傳副本
type MemoryStore struct {
	mu sync.RWMutex

	users    map[string]models.User
	rooms    map[string]models.Room
	messages map[string]*storedMessage

	// 每個聊天室的消息 id，依插入順序
	roomMessages map[string][]string

	// 成員關係的雙向索引: roomID -> userIDs, userID -> roomIDs
	roomUsers map[string]set
	userRooms map[string]set

	seq      uint64
	lastTime time.Time
	now      func() time.Time
	log      *slog.Logger
}

// NewMemoryStore 創建一個空的記憶體儲存
func NewMemoryStore(log *slog.Logger) *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]models.User),
		rooms:        make(map[string]models.Room),
		messages:     make(map[string]*storedMessage),
		roomMessages: make(map[string][]string),
		roomUsers:    make(map[string]set),
		userRooms:    make(map[string]set),
		now:          time.Now,
		log:          log,
	}
}

// CreateUser 建立新用戶，id 重複時回傳 ErrConflict
func (s *MemoryStore) CreateUser(id, name string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; exists {
		return models.User{}, fmt.Errorf("user %q: %w", id, ErrConflict)
	}
	user := models.User{ID: id, Name: name}
	s.users[id] = user
	s.log.Debug("User created", "user_id", id)
	return user, nil
}

// GetUser 查詢用戶
func (s *MemoryStore) GetUser(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	return user, ok
}

// ListUsers 回傳所有用戶，依 id 排序
func (s *MemoryStore) ListUsers() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.users, func(u models.User) string { return u.ID })
}

// DeleteUser 刪除用戶並移除其所有成員關係
// 該用戶的歷史消息保留
func (s *MemoryStore) DeleteUser(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return false
	}
	for roomID := range s.userRooms[id] {
		s.unlink(id, roomID)
	}
	delete(s.users, id)
	s.log.Debug("User deleted", "user_id", id)
	return true
}

// CreateRoom 建立新聊天室，id 重複時回傳 ErrConflict
func (s *MemoryStore) CreateRoom(id string) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[id]; exists {
		return models.Room{}, fmt.Errorf("room %q: %w", id, ErrConflict)
	}
	room := models.Room{ID: id}
	s.rooms[id] = room
	s.log.Debug("Room created", "room_id", id)
	return room, nil
}

// GetRoom 查詢聊天室
func (s *MemoryStore) GetRoom(id string) (models.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	return room, ok
}

// ListRooms 回傳所有聊天室，依 id 排序
func (s *MemoryStore) ListRooms() []models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.rooms, func(r models.Room) string { return r.ID })
}

// DeleteRoom 刪除聊天室、其成員關係以及其消息
func (s *MemoryStore) DeleteRoom(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; !ok {
		return false
	}
	for userID := range s.roomUsers[id] {
		s.unlink(userID, id)
	}
	for _, msgID := range s.roomMessages[id] {
		delete(s.messages, msgID)
	}
	delete(s.roomMessages, id)
	delete(s.rooms, id)
	s.log.Debug("Room deleted", "room_id", id)
	return true
}

// CreateMessage 在聊天室中建立一條消息，狀態為 sent，時間戳為當前時間
// 用戶或聊天室不存在時回傳 ErrNotFound，消息 id 重複時回傳 ErrConflict
func (s *MemoryStore) CreateMessage(id, userID, roomID, content string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return models.Message{}, fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	if _, ok := s.rooms[roomID]; !ok {
		return models.Message{}, fmt.Errorf("room %q: %w", roomID, ErrNotFound)
	}
	if _, exists := s.messages[id]; exists {
		return models.Message{}, fmt.Errorf("message %q: %w", id, ErrConflict)
	}

	s.seq++
	stored := &storedMessage{
		Message: models.Message{
			ID:        id,
			UserID:    userID,
			RoomID:    roomID,
			Content:   content,
			Status:    models.MessageStatusSent,
			Timestamp: s.nextTimestamp(),
		},
		seq: s.seq,
	}
	s.messages[id] = stored
	s.roomMessages[roomID] = append(s.roomMessages[roomID], id)
	return stored.Message, nil
}

// GetMessage 查詢消息
func (s *MemoryStore) GetMessage(id string) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.messages[id]
	if !ok {
		return models.Message{}, false
	}
	return stored.Message, true
}

// UpdateMessageStatus 更新消息狀態，消息不存在時回傳 false
// 不檢查狀態只能由 sent 前進到 read
func (s *MemoryStore) UpdateMessageStatus(id string, status models.MessageStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.messages[id]
	if !ok {
		return false
	}
	stored.Status = status
	return true
}

// RoomMessages 回傳聊天室的所有消息，依時間戳排序，相同時間依建立順序
// 聊天室不存在或沒有消息時回傳空切片
func (s *MemoryStore) RoomMessages(roomID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := lo.Map(s.roomMessages[roomID], func(id string, _ int) *storedMessage {
		return s.messages[id]
	})
	slices.SortStableFunc(stored, func(a, b *storedMessage) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	return lo.Map(stored, func(m *storedMessage, _ int) models.Message {
		return m.Message
	})
}

// AddMembership 將用戶加入聊天室，用戶或聊天室不存在時回傳 false
// 重複加入不會出錯
func (s *MemoryStore) AddMembership(userID, roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return false
	}
	if _, ok := s.rooms[roomID]; !ok {
		return false
	}
	if s.roomUsers[roomID] == nil {
		s.roomUsers[roomID] = make(set)
	}
	if s.userRooms[userID] == nil {
		s.userRooms[userID] = make(set)
	}
	s.roomUsers[roomID][userID] = struct{}{}
	s.userRooms[userID][roomID] = struct{}{}
	return true
}

// RemoveMembership 移除成員關係，原本存在時回傳 true
func (s *MemoryStore) RemoveMembership(userID, roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roomUsers[roomID][userID]; !ok {
		return false
	}
	s.unlink(userID, roomID)
	return true
}

// IsMember 檢查用戶是否屬於聊天室
func (s *MemoryStore) IsMember(userID, roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.roomUsers[roomID][userID]
	return ok
}

// RoomMembers 回傳聊天室的成員，依 id 排序
func (s *MemoryStore) RoomMembers(roomID string) []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Map(sortedKeys(s.roomUsers[roomID]), func(id string, _ int) models.User {
		return s.users[id]
	})
}

// UserRooms 回傳用戶加入的聊天室，依 id 排序
func (s *MemoryStore) UserRooms(userID string) []models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Map(sortedKeys(s.userRooms[userID]), func(id string, _ int) models.Room {
		return s.rooms[id]
	})
}

// unlink 移除雙向索引中的一筆關係並清理空集合，呼叫者須持有寫鎖
func (s *MemoryStore) unlink(userID, roomID string) {
	if users, ok := s.roomUsers[roomID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(s.roomUsers, roomID)
		}
	}
	if rooms, ok := s.userRooms[userID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(s.userRooms, userID)
		}
	}
}

// nextTimestamp 回傳不會早於上一次建立時間的時間戳，呼叫者須持有寫鎖
func (s *MemoryStore) nextTimestamp() time.Time {
	now := s.now()
	if now.Before(s.lastTime) {
		now = s.lastTime
	}
	s.lastTime = now
	return now
}

func sortedKeys(m set) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

func sortedValues[T any](m map[string]T, key func(T) string) []T {
	values := lo.Values(m)
	slices.SortFunc(values, func(a, b T) int {
		return strings.Compare(key(a), key(b))
	})
	return values
}
