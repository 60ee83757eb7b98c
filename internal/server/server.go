package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/truco-paulista/internal/config"
	"github.com/palemoky/truco-paulista/internal/game/room"
	"github.com/palemoky/truco-paulista/internal/logger"
	"github.com/palemoky/truco-paulista/internal/server/handler"
	"github.com/palemoky/truco-paulista/internal/server/storage"
)

const redisPingTimeout = 5 * time.Second

// Server WebSocket / HTTP 服务器
type Server struct {
	config      *config.Config
	redisStore  *storage.RedisStore // 未启用 Redis 时为空操作
	leaderboard *storage.Leaderboard
	roomManager *room.RoomManager
	handler     *handler.Handler
	router      *gin.Engine
	httpServer  *http.Server
	upgrader    websocket.Upgrader

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	ipFilter       *IPFilter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	// 关闭完成前通知的 webhook，为空时跳过
	shutdownWebhook string

	done     chan struct{}
	stopOnce sync.Once
}

// NewServer 创建服务器实例。启用 Redis 时连接失败直接返回错误。
func NewServer(cfg *config.Config) (*Server, error) {
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}
		log.Printf("🗄️  已连接 Redis %s", cfg.Redis.Addr)
	}

	s := &Server{
		config:      cfg,
		redisStore:  storage.NewRedisStore(rdb),
		leaderboard: storage.NewLeaderboard(rdb),
		clients:     make(map[string]*Client),
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:   NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter:  NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		ipFilter:        NewIPFilter(cfg.Security.BlockedIPs),
		maxConnections:  cfg.Server.MaxConnections,
		semaphore:       make(chan struct{}, cfg.Server.MaxConnections),
		shutdownWebhook: os.Getenv(shutdownWebhookEnv),
		done:            make(chan struct{}),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 来源在升级前已由 originChecker 校验
		CheckOrigin: func(*http.Request) bool { return true },
	}

	var leaderboard *storage.Leaderboard
	if rdb != nil {
		leaderboard = s.leaderboard
	}
	s.roomManager = room.NewRoomManager(s.redisStore, leaderboard, room.Settings{
		NextHandDelay: cfg.Game.NextHandDelay(),
		LogSize:       cfg.Game.LogSize,
		MaxNameLength: cfg.Game.MaxNameLength,
	})
	if rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		if n, err := s.roomManager.ClearStaleMirrors(ctx); err != nil {
			logger.LogError("清理遗留房间镜像失败: %v", err)
		} else if n > 0 {
			log.Printf("🧹 已清理 %d 个遗留房间镜像", n)
		}
		cancel()
	}

	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:      s,
		RoomManager: s.roomManager,
	})
	s.router = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("🔒 安全配置: 连接限制=%d/s, 消息限制=%d/s, 最大连接数=%d",
		cfg.Security.RateLimit.MaxPerSecond, cfg.Security.MessageLimit.MaxPerSecond, cfg.Server.MaxConnections)

	return s, nil
}

// Handler 返回 HTTP 处理器（测试中配合 httptest 使用）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动服务器，阻塞直到服务器关闭
func (s *Server) Start() error {
	go s.monitorStats()

	log.Printf("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", s.httpServer.Addr, runtime.NumCPU())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
