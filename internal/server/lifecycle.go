package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"time"

	"github.com/palemoky/truco-paulista/internal/logger"
	"github.com/palemoky/truco-paulista/internal/protocol"
	"github.com/palemoky/truco-paulista/internal/protocol/codec"
)

const (
	monitorInterval = 30 * time.Second
	httpStopTimeout = 5 * time.Second

	// 关闭前通知的 webhook 地址，未设置时跳过
	shutdownWebhookEnv = "SHUTDOWN_WEBHOOK_URL"
)

// monitorStats 定期输出服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			log.Printf("📊 [监控] 在线: %d | Goroutines: %d | 房间: %d (对局中 %d) | 活跃连接: %d/%d | 内存: %.2f MB",
				s.GetOnlineCount(),
				runtime.NumGoroutine(),
				s.roomManager.GetRoomCount(),
				s.roomManager.GetActiveGamesCount(),
				len(s.semaphore),
				s.maxConnections,
				float64(m.Alloc)/1024/1024)
		case <-s.done:
			return
		}
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接与新的加入
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.BroadcastToAll(codec.NewErrorMessageWithText(protocol.ErrCodeServerMaintenance,
		"Servidor entrando em manutenção: novas partidas estão suspensas."))

	log.Println("🔧 进入维护模式：停止新连接和加入房间")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式，等待进行中的对局结束（最多 timeout），然后关闭
func (s *Server) GracefulShutdown(timeout time.Duration) {
	logger.LogInfo("开始优雅关闭，最长等待 %v", timeout)
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.config.Game.ShutdownCheckIntervalDuration())
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		activeGames := s.roomManager.GetActiveGamesCount()
		if activeGames == 0 {
			log.Printf("✅ 所有对局已结束，将在 %v 后关闭服务器", s.config.Game.RoomCleanupDelayDuration())
			s.BroadcastToAll(codec.NewErrorMessageWithText(protocol.ErrCodeServerMaintenance,
				fmt.Sprintf("Servidor será desligado em %d segundos.", s.config.Game.RoomCleanupDelay)))
			break
		}
		log.Printf("⏳ 等待 %d 个对局结束...", activeGames)
		<-ticker.C
	}

	if activeGames := s.roomManager.GetActiveGamesCount(); activeGames > 0 {
		log.Printf("⚠️ 超时，仍有 %d 个对局进行中，强制关闭", activeGames)
	}

	time.Sleep(s.config.Game.RoomCleanupDelayDuration())
	// 先通知再关闭：Shutdown 之后 Start 返回，进程随即退出
	s.sendShutdownNotification(s.shutdownWebhook)
	s.Shutdown()
}

// sendShutdownNotification 向运维 webhook 发送关闭通知
func (s *Server) sendShutdownNotification(url string) {
	if url == "" {
		return
	}

	body, _ := json.Marshal(map[string]string{"text": "Servidor de truco desligado, pode atualizar."})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Printf("创建通知请求失败: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("发送通知失败: %v", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		log.Println("🔔 已发送关闭通知")
	} else {
		log.Printf("通知响应异常: %d", resp.StatusCode)
	}
}

// Shutdown 立即关闭：取消等待中的发牌，断开所有客户端，停止 HTTP 服务并关闭 Redis。可重复调用。
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.rateLimiter.Stop()
		s.roomManager.Shutdown()

		s.clientsMu.RLock()
		for _, client := range s.clients {
			client.Close()
		}
		s.clientsMu.RUnlock()

		ctx, cancel := context.WithTimeout(context.Background(), httpStopTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logger.LogError("HTTP 服务关闭失败: %v", err)
		}

		if err := s.redisStore.Close(); err != nil {
			logger.LogError("关闭 Redis 失败: %v", err)
		}
		logger.LogInfo("服务器已关闭")
	})
}
