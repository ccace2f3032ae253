package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/slot-payout/internal/logger"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrClientNotFound = errors.New("客户端未找到")
	ErrSendBufferFull = errors.New("发送缓冲区已满")
	ErrInvalidMessage = errors.New("无效的消息格式")
)

// Client WebSocket客户端
type Client struct {
	ID   string          // 客户端ID
	Hub  *Hub            // Hub引用
	Conn *websocket.Conn // WebSocket连接
	Send chan []byte     // 发送通道

	mu       sync.RWMutex
	paytable string // 订阅的赔付表，空表示全部
}

// subscribeRequest 订阅请求数据
type subscribeRequest struct {
	Paytable string `json:"paytable"`
}

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New().String(),
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, hub.settings.SendBuffer),
	}
}

// Subscription 当前订阅的赔付表
func (c *Client) Subscription() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paytable
}

// Subscribe 只接收指定赔付表的推送，空字符串表示全部
func (c *Client) Subscribe(paytable string) {
	c.mu.Lock()
	c.paytable = paytable
	c.mu.Unlock()
}

func (c *Client) wants(paytable string) bool {
	sub := c.Subscription()
	return sub == "" || paytable == "" || sub == paytable
}

// ReadPump 读取消息
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	s := c.Hub.settings
	c.Conn.SetReadLimit(s.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(s.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(s.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Error("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			break
		}
		c.handleMessage(message)
	}
}

// WritePump 写入消息
func (c *Client) WritePump() {
	s := c.Hub.settings
	ticker := time.NewTicker(s.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(s.WriteWait))
			if !ok {
				// Hub关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(s.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理接收到的消息
func (c *Client) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		c.Hub.logger.Warn("解析WebSocket消息失败",
			zap.String("client_id", c.ID),
			zap.Error(err))
		c.sendError(ErrInvalidMessage.Error())
		return
	}
	logger.LogWebSocketMessage("receive", msg.Type, string(msg.Data))

	switch msg.Type {
	case MessageTypePing:
		c.Hub.SendToClient(c.ID, newMessage(MessageTypePong, "", nil))

	case MessageTypePong:
		c.Hub.logger.Debug("收到pong", zap.String("client_id", c.ID))

	case MessageTypeSubscribe:
		var req subscribeRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				c.sendError(ErrInvalidMessage.Error())
				return
			}
		}
		c.Subscribe(req.Paytable)
		c.Hub.SendToClient(c.ID, newMessage(MessageTypeSubscribe, req.Paytable, req))

	default:
		c.Hub.logger.Warn("收到不支持的消息类型",
			zap.String("client_id", c.ID),
			zap.String("type", msg.Type))
		c.sendError("不支持的消息类型: " + msg.Type)
	}
}

// sendError 发送错误消息
func (c *Client) sendError(message string) {
	c.Hub.SendToClient(c.ID, newMessage(MessageTypeError, "", map[string]string{"error": message}))
}
