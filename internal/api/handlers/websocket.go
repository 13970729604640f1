package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chat_relay/internal/service"
)

// WebSocketHandler 處理 WebSocket 連接
type WebSocketHandler struct {
	wsService *service.WebSocketService
	upgrader  websocket.Upgrader
	origins   *OriginPolicy
	log       *slog.Logger
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(wsService *service.WebSocketService, allowedOrigins []string, log *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		wsService: wsService,
		origins:   NewOriginPolicy(allowedOrigins, log),
		log:       log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// HandleWebSocket 處理 WebSocket 連接請求，連線關閉後才返回
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	// 升級 HTTP 連接為 WebSocket 連接，失敗時 upgrader 已經回應錯誤
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "remote_addr", c.ClientIP(), "error", err)
		return
	}

	h.wsService.HandleConnection(conn, c.ClientIP())
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.origins.Allowed(r.Header.Get("Origin")) {
		return true
	}
	h.log.Warn("Blocked websocket connection from disallowed origin", "origin", r.Header.Get("Origin"))
	return false
}

// OriginPolicy 判斷 WebSocket 請求的 Origin 是否在允許清單內
// 清單包含 "*" 時允許所有來源，包括沒有 Origin 標頭的非瀏覽器客戶端
type OriginPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func NewOriginPolicy(origins []string, log *slog.Logger) *OriginPolicy {
	policy := &OriginPolicy{allowed: make(map[string]struct{})}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			policy.allowAll = true
		default:
			normalized, ok := normalizeOrigin(trimmed)
			if !ok {
				log.Warn("Ignoring invalid origin in configuration", "origin", origin)
				continue
			}
			policy.allowed[normalized] = struct{}{}
		}
	}
	return policy
}

func (p *OriginPolicy) Allowed(origin string) bool {
	if p.allowAll {
		return true
	}
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	_, exists := p.allowed[normalized]
	return exists
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
