package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/palemoky/truco-paulista/internal/protocol"
	"github.com/palemoky/truco-paulista/internal/protocol/codec"
	"github.com/palemoky/truco-paulista/internal/types"
)

// handleWebSocket 处理 WebSocket 连接：依次检查维护模式、连接数、IP、来源与频率，再升级协议
func (s *Server) handleWebSocket(c *gin.Context) {
	w, r := c.Writer, c.Request
	clientIP := GetClientIP(r)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		log.Printf("🔧 维护模式，拒绝新连接: %s", clientIP)
		http.Error(w, "Server is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}

	// 连接数限制，名额在连接断开时归还
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Printf("🚫 达到最大连接数限制 (%d), IP: %s", s.maxConnections, clientIP)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}
	upgraded := false
	defer func() {
		if !upgraded {
			s.releaseSlot()
		}
	}()

	if !s.ipFilter.IsAllowed(clientIP) {
		log.Printf("🚫 IP %s 被过滤器拒绝", clientIP)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if !s.originChecker.Check(r) {
		log.Printf("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), clientIP)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	if !s.rateLimiter.Allow(clientIP) {
		log.Printf("🚫 IP %s 请求过于频繁", clientIP)
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}
	upgraded = true

	client := NewClient(s, conn)
	client.IP = clientIP
	s.RegisterClient(client)

	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID: client.ID,
	}))
	log.Printf("✅ 玩家 %s 已连接 (IP: %s)", client.ID, clientIP)

	go client.ReadPump()
	go client.WritePump()
}

func (s *Server) releaseSlot() {
	select {
	case <-s.semaphore:
	default:
	}
}

// GetClientByID 按玩家 ID 查找在线客户端
func (s *Server) GetClientByID(id string) types.ClientInterface {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	if c, ok := s.clients[id]; ok {
		return c
	}
	return nil
}

// RegisterClient 注册客户端
func (s *Server) RegisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// UnregisterClient 注销客户端并归还连接名额
func (s *Server) UnregisterClient(id string) {
	s.clientsMu.Lock()
	_, ok := s.clients[id]
	delete(s.clients, id)
	s.clientsMu.Unlock()

	if ok {
		s.releaseSlot()
	}
}
