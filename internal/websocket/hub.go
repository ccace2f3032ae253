package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/slot-payout/internal/config"
	"github.com/wfunc/slot-payout/internal/game/slot"
	"go.uber.org/zap"
)

// Hub WebSocket连接管理中心，向表现层推送旋转结果
type Hub struct {
	// 客户端连接池
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 消息广播通道
	broadcast chan *Message

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	settings Settings
	logger   *zap.Logger
}

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`               // 消息类型
	Paytable  string          `json:"paytable,omitempty"` // 旋转结果所属赔付表
	Data      json.RawMessage `json:"data,omitempty"`     // 消息数据
	Timestamp int64           `json:"timestamp"`          // 时间戳（毫秒）
}

// MessageType 消息类型
const (
	// 系统消息
	MessageTypeConnected = "connected"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeError     = "error"
	MessageTypeSubscribe = "subscribe"

	// 引擎消息
	MessageTypeSpinResult       = "spin_result"
	MessageTypePaytableReloaded = "paytable_reloaded"
)

// Settings 连接参数
type Settings struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultSettings 默认连接参数
func DefaultSettings() Settings {
	return Settings{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second, // 必须小于 PongWait
		MaxMessageSize: 8 * 1024,
		SendBuffer:     256,
	}
}

// SettingsFromConfig 由配置生成连接参数，未配置项使用默认值
func SettingsFromConfig(cfg config.WebSocketConfig) Settings {
	s := DefaultSettings()
	if cfg.WriteTimeout > 0 {
		s.WriteWait = cfg.WriteTimeout
	}
	if cfg.PongTimeout > 0 {
		s.PongWait = cfg.PongTimeout
		s.PingPeriod = cfg.PongTimeout * 9 / 10
	}
	if cfg.PingInterval > 0 && cfg.PingInterval < s.PongWait {
		s.PingPeriod = cfg.PingInterval
	}
	if cfg.MaxMessageSize > 0 {
		s.MaxMessageSize = cfg.MaxMessageSize
	}
	return s
}

// NewHub 创建Hub
func NewHub(settings Settings, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.SendBuffer <= 0 {
		settings.SendBuffer = DefaultSettings().SendBuffer
	}
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		settings:   settings,
		logger:     logger,
	}
}

// Run 运行Hub，ctx 取消后关闭所有客户端
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.clientsMu.Lock()
		for id, client := range h.clients {
			close(client.Send)
			delete(h.clients, id)
		}
		h.clientsMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接", zap.String("client_id", client.ID))

	h.SendToClient(client.ID, newMessage(MessageTypeConnected, "", map[string]string{
		"client_id": client.ID,
	}))
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端断开", zap.String("client_id", client.ID))
}

// broadcastMessage 广播消息，只发给订阅了该赔付表（或未订阅）的客户端
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for _, client := range h.clients {
		if !client.wants(message.Paytable) {
			continue
		}
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("客户端发送缓冲区满，丢弃消息",
				zap.String("client_id", client.ID),
				zap.String("type", message.Type))
		}
	}
}

// SendToClient 发送消息给指定客户端
func (h *Hub) SendToClient(clientID string, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	client, ok := h.clients[clientID]
	if !ok {
		return ErrClientNotFound
	}

	select {
	case client.Send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// GetOnlineCount 获取在线连接数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Broadcast 广播消息，Hub 已停止时丢弃
func (h *Hub) Broadcast(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// PublishSpin 推送一次旋转结果
func (h *Hub) PublishSpin(o *slot.SpinOutcome) {
	h.Broadcast(newMessage(MessageTypeSpinResult, o.Paytable, NewSpinEvent(o)))
}

// PublishReload 推送赔付表重载通知
func (h *Hub) PublishReload(pt *slot.Paytable) {
	h.Broadcast(newMessage(MessageTypePaytableReloaded, pt.Name, map[string]interface{}{
		"name":         pt.Name,
		"expected_rtp": pt.ExpectedRTP(),
		"rows":         pt.Rows,
		"reels":        pt.Reels,
	}))
}

// Register 注册客户端（公开方法）
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister 注销客户端（公开方法）
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func newMessage(msgType, paytable string, data interface{}) *Message {
	msg := &Message{
		Type:      msgType,
		Paytable:  paytable,
		Timestamp: time.Now().UnixMilli(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err == nil {
			msg.Data = raw
		}
	}
	return msg
}

// Serve 接管一个已升级的连接并启动读写协程
func (h *Hub) Serve(conn *websocket.Conn) *Client {
	client := NewClient(h, conn)
	h.Register(client)
	go client.WritePump()
	go client.ReadPump()
	return client
}
