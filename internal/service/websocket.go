package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat_relay/internal/utils"
)

// ClientConfig 定義單一 WebSocket 連線的讀寫參數
type ClientConfig struct {
	ReadLimit  int64         // 單一消息的最大位元組數
	SendBuffer int           // 發送佇列長度
	PongWait   time.Duration // 等待 pong 的時間
	PingPeriod time.Duration // 發送 ping 的間隔，必須小於 PongWait
	WriteWait  time.Duration // 寫入超時
}

// DefaultClientConfig 回傳預設的連線參數
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ReadLimit:  4096,
		SendBuffer: 256,
		PongWait:   60 * time.Second,
		PingPeriod: 54 * time.Second,
		WriteWait:  10 * time.Second,
	}
}

// Client 代表一個 WebSocket 客戶端連接
type Client struct {
	ID   string
	Addr string

	conn     *websocket.Conn
	send     chan []byte // 消息發送通道，用於異步傳送消息
	presence *Presence
	cfg      ClientConfig
	log      *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Deliver 將消息放入發送佇列，不會阻塞
// 連線已關閉或佇列已滿時回傳 ErrDeliveryFailure
func (c *Client) Deliver(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client %s closed: %w", c.ID, ErrDeliveryFailure)
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return fmt.Errorf("client %s send buffer full: %w", c.ID, ErrDeliveryFailure)
	}
}

// Close 關閉發送佇列，writePump 會送出 close frame 並關閉連線
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.send)
	return nil
}

// readPump 持續監聽並處理從客戶端接收的消息
func (c *Client) readPump() {
	c.conn.SetReadLimit(c.cfg.ReadLimit)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		c.log.Warn("Error setting read deadline", "connection_id", c.ID, "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if err := c.presence.HandleEvent(c.ID, message); err != nil {
			if IsProtocolError(err) {
				c.log.Debug("Discarding event", "connection_id", c.ID, "error", err)
			} else {
				c.log.Warn("Event rejected", "connection_id", c.ID, "error", err)
			}
		}
	}
}

// writePump 處理向客戶端發送消息的邏輯
func (c *Client) writePump() {
	// 設置心跳檢查計時器
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Warn("Write failed", "connection_id", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			// 發送心跳包
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("Ping failed", "connection_id", c.ID, "error", err)
				return
			}
		}
	}
}

func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("Message exceeded read limit", "connection_id", c.ID, "limit", c.cfg.ReadLimit)
	case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		c.log.Warn("Websocket unexpected close error", "connection_id", c.ID, "error", err)
	default:
		c.log.Debug("Websocket closed", "connection_id", c.ID, "error", err)
	}
}

// WebSocketService 為每個 WebSocket 連線建立 Client 並管理其生命週期
type WebSocketService struct {
	presence *Presence
	cfg      ClientConfig
	log      *slog.Logger
	wg       sync.WaitGroup

	mu      sync.Mutex
	closing bool // Shutdown 開始後不再接受新連線
}

// NewWebSocketService 創建並初始化新的 WebSocket 服務
func NewWebSocketService(presence *Presence, cfg ClientConfig, log *slog.Logger) *WebSocketService {
	return &WebSocketService{
		presence: presence,
		cfg:      cfg,
		log:      log,
	}
}

// HandleConnection 處理新的 WebSocket 連線，直到連線關閉才返回
func (s *WebSocketService) HandleConnection(conn *websocket.Conn, addr string) {
	client := &Client{
		ID:       utils.NewID(),
		Addr:     addr,
		conn:     conn,
		send:     make(chan []byte, s.cfg.SendBuffer),
		presence: s.presence,
		cfg:      s.cfg,
		log:      s.log.With("remote_addr", addr),
	}

	if !s.admit(client) {
		s.log.Info("Refusing websocket connection during shutdown", "remote_addr", addr)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(s.cfg.WriteWait))
		_ = conn.Close()
		return
	}
	defer s.wg.Done()

	// 確保連接關閉時清理資源
	defer func() {
		s.presence.Disconnect(client.ID)
		_ = client.Close()
	}()

	// 啟動讀寫處理
	go client.writePump()
	client.readPump()
}

// admit 在未關閉時登記並註冊一個連線
// 與 Shutdown 共用同一把鎖，被接納的連線一定會被 CloseAll 看到
func (s *WebSocketService) admit(client *Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return false
	}
	s.wg.Add(1)
	s.presence.Connect(client.ID, client)
	return true
}

// Shutdown 拒絕新連線，關閉所有連線並等待處理中的連線結束
func (s *WebSocketService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	closed := s.presence.CloseAll()
	s.log.Info("Closing websocket connections", "connections", closed)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
