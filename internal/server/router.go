package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/palemoky/truco-paulista/internal/logger"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
	apiTimeout              = 3 * time.Second
)

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", s.handleWebSocket)
	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.GET("/rooms", s.handleRoomList)
	api.GET("/leaderboard", s.handleLeaderboard)
	api.GET("/players/:name", s.handlePlayerStats)

	// 静态页面挂在 NoRoute 上，避免与 /ws、/api 路由冲突
	if dir := s.config.Server.StaticDir; dir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(dir))))
		log.Printf("📁 静态目录: %s", dir)
	}
	return r
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"online":      s.GetOnlineCount(),
		"rooms":       s.roomManager.GetRoomCount(),
		"maintenance": s.IsMaintenanceMode(),
	})
}

// handleRoomList 房间目录
func (s *Server) handleRoomList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"rooms":        s.roomManager.GetRoomList(),
		"active_games": s.roomManager.GetActiveGamesCount(),
	})
}

// handleLeaderboard 排行榜，period 为 total / daily / weekly
func (s *Server) handleLeaderboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLeaderboardLimit)))
	if err != nil || limit <= 0 || limit > maxLeaderboardLimit {
		limit = defaultLeaderboardLimit
	}
	period := c.DefaultQuery("period", "total")

	ctx, cancel := context.WithTimeout(c.Request.Context(), apiTimeout)
	defer cancel()

	entries, err := s.leaderboard.GetLeaderboard(ctx, period, limit)
	if err != nil {
		logger.LogError("获取排行榜失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leaderboard unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "entries": entries})
}

// handlePlayerStats 单个玩家的统计与总榜排名
func (s *Server) handlePlayerStats(c *gin.Context) {
	name := c.Param("name")

	ctx, cancel := context.WithTimeout(c.Request.Context(), apiTimeout)
	defer cancel()

	stats, err := s.leaderboard.GetPlayerStats(ctx, name)
	if err != nil {
		logger.LogError("获取玩家 %s 统计失败: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	if stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}

	rank, err := s.leaderboard.GetPlayerRank(ctx, name)
	if err != nil {
		logger.LogError("获取玩家 %s 排名失败: %v", name, err)
		rank = -1
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "rank": rank})
}
