package server

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/palemoky/truco-paulista/internal/protocol"
	"github.com/palemoky/truco-paulista/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	sendBufferSize = 64
)

// frame 一帧待发送的数据
type frame struct {
	kind int // websocket.TextMessage 或 websocket.BinaryMessage
	data []byte
}

// Client 一个 WebSocket 连接。ID 是服务端分配的不透明玩家标识。
type Client struct {
	ID string
	IP string

	server *Server
	conn   *websocket.Conn
	send   chan frame

	// 客户端发过二进制帧后，服务端也改用二进制帧回复
	binary atomic.Bool

	mu     sync.RWMutex
	name   string
	roomID string
	closed bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		server: s,
		conn:   conn,
		send:   make(chan frame, sendBufferSize),
	}
}

// ReadPump 从 WebSocket 读取消息，连接断开时等同于离开房间
func (c *Client) ReadPump() {
	defer func() {
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("读取错误: %v", err)
			}
			return
		}

		handle, keep := c.checkRate()
		if !keep {
			return
		}
		if !handle {
			continue
		}

		var msg *protocol.Message
		if kind == websocket.BinaryMessage {
			c.binary.Store(true)
			msg, err = codec.DecodeBinary(data)
		} else {
			msg, err = codec.Decode(data)
		}
		if err != nil {
			log.Printf("消息解析错误 (玩家 %s): %v", c.ID, err)
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		c.server.handler.Handle(c, msg)
		codec.PutMessage(msg)
	}
}

// checkRate 消息限速。handle 为 false 时丢弃本条消息，keep 为 false 时断开连接。
func (c *Client) checkRate() (handle, keep bool) {
	limiter := c.server.messageLimiter
	allowed, warning := limiter.AllowMessage(c.ID)
	if warning {
		c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeRateLimit))
	}
	if allowed {
		return true, true
	}

	log.Printf("⚠️ 客户端 %s (IP: %s) 消息过于频繁", c.ID, c.IP)
	if limiter.ShouldDisconnect(c.ID) {
		log.Printf("🚫 客户端 %s 因多次超速被断开连接", c.ID)
		return false, false
	}
	return false, true
}

// WritePump 向 WebSocket 写入消息并定期发送 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(f.kind, f.data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 按客户端使用的帧格式编码后放入发送队列
func (c *Client) SendMessage(msg *protocol.Message) {
	f, err := c.encode(msg)
	if err != nil {
		log.Printf("消息编码错误: %v", err)
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.send <- f:
	default:
		// 发送缓冲区已满，异步关闭，避免在持有读锁时获取写锁
		log.Printf("客户端 %s 发送缓冲区已满", c.ID)
		go c.Close()
	}
}

func (c *Client) encode(msg *protocol.Message) (frame, error) {
	if c.binary.Load() {
		data, err := codec.EncodeBinary(msg)
		return frame{kind: websocket.BinaryMessage, data: data}, err
	}
	data, err := codec.Encode(msg)
	return frame{kind: websocket.TextMessage, data: data}, err
}

// handleDisconnect 离开房间并注销连接
func (c *Client) handleDisconnect() {
	c.server.handler.HandleDisconnect(c)
	c.server.messageLimiter.RemoveClient(c.ID)
	c.server.UnregisterClient(c.ID)
	log.Printf("❌ 玩家 %s (%s) 已断开", c.GetName(), c.ID)
}

// Close 关闭发送队列，WritePump 随后发送关闭帧
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) GetID() string { return c.ID }

func (c *Client) GetName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *Client) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// SetRoom 设置客户端所在房间
func (c *Client) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// GetRoom 获取客户端所在房间
func (c *Client) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}
