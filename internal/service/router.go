package service

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/samber/lo"

	"chat_relay/internal/models"
	"chat_relay/internal/repository"
)

// DeliveryStats 統計投遞結果
type DeliveryStats struct {
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
}

// Router 決定事件的收件者並逐一投遞
// 單一收件者投遞失敗時只會移除該連線，不影響其他收件者
type Router struct {
	registry   *Registry
	membership repository.MembershipRepository
	log        *slog.Logger

	delivered atomic.Int64
	failed    atomic.Int64
}

// NewRouter 創建一個新的 Router 實例
func NewRouter(registry *Registry, membership repository.MembershipRepository, log *slog.Logger) *Router {
	return &Router{
		registry:   registry,
		membership: membership,
		log:        log,
	}
}

// Broadcast 將事件投遞給所有已識別的連線，exclude 指定的連線除外
func (r *Router) Broadcast(event models.Event, exclude string) {
	payload, ok := r.encode(event)
	if !ok {
		return
	}
	recipients := r.registry.Snapshot(exclude)
	r.log.Debug("Broadcasting event", "type", event.Type, "recipients", len(recipients))
	r.deliver(recipients, payload)
}

// Route 將事件只投遞給聊天室成員的連線
func (r *Router) Route(event models.Event, roomID string) {
	payload, ok := r.encode(event)
	if !ok {
		return
	}
	members := r.membership.FindUsersByRoom(roomID)
	userIDs := lo.Map(members, func(u models.User, _ int) string { return u.ID })
	recipients := r.registry.RecipientsFor(userIDs)
	r.log.Debug("Routing event", "type", event.Type, "room_id", roomID, "members", len(members), "recipients", len(recipients))
	r.deliver(recipients, payload)
}

// SendTo 將事件投遞給單一連線，不論是否已識別
func (r *Router) SendTo(connID string, event models.Event) {
	payload, ok := r.encode(event)
	if !ok {
		return
	}
	sink, ok := r.registry.Sink(connID)
	if !ok {
		return
	}
	r.deliver([]Recipient{{ConnectionID: connID, Sink: sink}}, payload)
}

// Stats 回傳目前的投遞統計
func (r *Router) Stats() DeliveryStats {
	return DeliveryStats{
		Delivered: r.delivered.Load(),
		Failed:    r.failed.Load(),
	}
}

func (r *Router) encode(event models.Event) ([]byte, bool) {
	payload, err := json.Marshal(event)
	if err != nil {
		r.log.Error("Event encoding error", "type", event.Type, "error", err)
		return nil, false
	}
	return payload, true
}

// deliver 在不持有任何鎖的情況下逐一投遞
func (r *Router) deliver(recipients []Recipient, payload []byte) {
	for _, rc := range recipients {
		if err := rc.Sink.Deliver(payload); err != nil {
			r.failed.Add(1)
			r.evict(rc, err)
			continue
		}
		r.delivered.Add(1)
	}
}

// evict 將投遞失敗的連線移出註冊表並關閉
func (r *Router) evict(rc Recipient, cause error) {
	if _, ok := r.registry.Unregister(rc.ConnectionID); ok {
		r.log.Warn("Connection removed after delivery failure",
			"connection_id", rc.ConnectionID, "user_id", rc.UserID, "error", cause)
	}
	if err := rc.Sink.Close(); err != nil {
		r.log.Debug("Error closing evicted connection", "connection_id", rc.ConnectionID, "error", err)
	}
}
