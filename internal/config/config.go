package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 3000
	defaultMaxConnections = 1000
	defaultRedisAddr      = "localhost:6379"

	defaultNextHandDelayMs       = 1800
	defaultLogSize               = 20
	defaultMaxNameLength         = 20
	defaultShutdownTimeout       = 10 // 分钟
	defaultShutdownCheckInterval = 5  // 秒
	defaultRoomCleanupDelay      = 3  // 秒

	defaultRateMaxPerSecond    = 10
	defaultRateMaxPerMinute    = 60
	defaultBanDuration         = 60 // 秒
	defaultMessageMaxPerSecond = 20
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig HTTP / WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
	StaticDir      string `yaml:"static_dir"` // 为空时不提供静态页面
}

// RedisConfig Redis 配置，仅用于房间镜像与排行榜
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	NextHandDelayMs       int `yaml:"next_hand_delay_ms"`      // 两手牌之间的停顿（毫秒）
	LogSize               int `yaml:"log_size"`                // 房间事件日志条数
	MaxNameLength         int `yaml:"max_name_length"`         // 玩家名最大字符数
	ShutdownTimeout       int `yaml:"shutdown_timeout"`        // 优雅关闭最长等待（分钟）
	ShutdownCheckInterval int `yaml:"shutdown_check_interval"` // 关闭时检查间隔（秒）
	RoomCleanupDelay      int `yaml:"room_cleanup_delay"`      // 关闭前等待（秒）
}

// NextHandDelay 两手牌之间的停顿
func (c *GameConfig) NextHandDelay() time.Duration {
	return time.Duration(c.NextHandDelayMs) * time.Millisecond
}

// ShutdownTimeoutDuration 优雅关闭最长等待时长
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Minute
}

// ShutdownCheckIntervalDuration 关闭时检查间隔
func (c *GameConfig) ShutdownCheckIntervalDuration() time.Duration {
	return time.Duration(c.ShutdownCheckInterval) * time.Second
}

// RoomCleanupDelayDuration 关闭前等待时长
func (c *GameConfig) RoomCleanupDelayDuration() time.Duration {
	return time.Duration(c.RoomCleanupDelay) * time.Second
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	BlockedIPs     []string           `yaml:"blocked_ips"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig 连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 秒
}

// BanDurationTime 封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// MessageLimitConfig 单连接消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// LogConfig 日志配置
type LogConfig struct {
	File string `yaml:"file"` // 为空时输出到 stderr
}

// Addr 监听地址
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load 加载配置文件，环境变量优先于文件，缺失的字段使用默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	var cfg Config
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.Host, defaultHost)
	setDefault(&c.Server.Port, defaultPort)
	setDefault(&c.Server.MaxConnections, defaultMaxConnections)
	setDefault(&c.Redis.Addr, defaultRedisAddr)

	setDefault(&c.Game.NextHandDelayMs, defaultNextHandDelayMs)
	setDefault(&c.Game.LogSize, defaultLogSize)
	setDefault(&c.Game.MaxNameLength, defaultMaxNameLength)
	setDefault(&c.Game.ShutdownTimeout, defaultShutdownTimeout)
	setDefault(&c.Game.ShutdownCheckInterval, defaultShutdownCheckInterval)
	setDefault(&c.Game.RoomCleanupDelay, defaultRoomCleanupDelay)

	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
	setDefault(&c.Security.RateLimit.MaxPerSecond, defaultRateMaxPerSecond)
	setDefault(&c.Security.RateLimit.MaxPerMinute, defaultRateMaxPerMinute)
	setDefault(&c.Security.RateLimit.BanDuration, defaultBanDuration)
	setDefault(&c.Security.MessageLimit.MaxPerSecond, defaultMessageMaxPerSecond)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// applyEnv 用环境变量覆盖配置（便于容器部署）
func (c *Config) applyEnv() {
	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)
	envInt("SERVER_MAX_CONNECTIONS", &c.Server.MaxConnections)
	envString("SERVER_STATIC_DIR", &c.Server.StaticDir)

	envBool("REDIS_ENABLED", &c.Redis.Enabled)
	envString("REDIS_ADDR", &c.Redis.Addr)
	envString("REDIS_PASSWORD", &c.Redis.Password)
	envInt("REDIS_DB", &c.Redis.DB)

	envInt("GAME_NEXT_HAND_DELAY_MS", &c.Game.NextHandDelayMs)

	if v := os.Getenv("SECURITY_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Security.AllowedOrigins = origins
	}

	envString("LOG_FILE", &c.Log.File)
}

func envString(key string, field *string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}

func envInt(key string, field *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*field = n
		}
	}
}

func envBool(key string, field *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*field = b
		}
	}
}
