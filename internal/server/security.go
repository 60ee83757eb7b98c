package server

import (
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	rateCleanupInterval = 5 * time.Minute
	rateIdleExpiry      = 10 * time.Minute

	// 单连接超速次数超过该值即断开
	maxMessageWarnings = 5
)

// --- 连接速率限制 ---

// RateLimiter 按 IP 限制建立连接的频率，超限后临时封禁
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*ipWindow

	perSecond   int
	perMinute   int
	banDuration time.Duration

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

type ipWindow struct {
	second      int
	minute      int
	secondStart time.Time
	minuteStart time.Time
	bannedUntil time.Time
}

// NewRateLimiter 创建速率限制器并启动过期记录清理
func NewRateLimiter(perSecond, perMinute int, banDuration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows:     make(map[string]*ipWindow),
		perSecond:   perSecond,
		perMinute:   perMinute,
		banDuration: banDuration,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow 记录一次来自 ip 的连接请求，返回是否放行
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[ip]
	if !ok {
		rl.windows[ip] = &ipWindow{second: 1, minute: 1, secondStart: now, minuteStart: now}
		return true
	}
	if now.Before(w.bannedUntil) {
		return false
	}

	if now.Sub(w.secondStart) >= time.Second {
		w.second, w.secondStart = 0, now
	}
	if now.Sub(w.minuteStart) >= time.Minute {
		w.minute, w.minuteStart = 0, now
	}
	w.second++
	w.minute++

	if w.second > rl.perSecond || w.minute > rl.perMinute {
		w.bannedUntil = now.Add(rl.banDuration)
		log.Printf("⚠️ IP %s 连接过于频繁，封禁 %v", ip, rl.banDuration)
		return false
	}
	return true
}

// Stop 停止清理协程
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rateCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

// sweep 删除长时间无请求且未封禁的记录
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, w := range rl.windows {
		if now.Sub(w.minuteStart) > rateIdleExpiry && !now.Before(w.bannedUntil) {
			delete(rl.windows, ip)
		}
	}
}

// --- 来源验证 ---

// OriginChecker 校验 WebSocket 握手的 Origin 头
type OriginChecker struct {
	allowed  map[string]bool
	allowAll bool
}

// NewOriginChecker 创建来源验证器，"*" 表示允许所有来源
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{allowed: make(map[string]bool)}
	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			continue
		}
		oc.allowed[normalizeOrigin(origin)] = true
	}
	return oc
}

// Check 没有 Origin 头的请求（非浏览器客户端）直接放行
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return oc.allowed[normalizeOrigin(origin)]
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}

// --- IP 黑名单 ---

// IPFilter IP 黑名单
type IPFilter struct {
	blocked map[string]bool // 创建后只读
}

// NewIPFilter 用配置中的黑名单创建过滤器
func NewIPFilter(blocked []string) *IPFilter {
	f := &IPFilter{blocked: make(map[string]bool)}
	for _, ip := range blocked {
		if ip = strings.TrimSpace(ip); ip != "" {
			f.blocked[ip] = true
		}
	}
	return f
}

// IsAllowed ip 是否允许连接
func (f *IPFilter) IsAllowed(ip string) bool {
	return !f.blocked[ip]
}

// GetClientIP 获取客户端真实 IP，优先使用反向代理头
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// --- 消息速率限制 ---

// MessageRateLimiter 已连接客户端的消息频率限制
type MessageRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*messageWindow

	perSecond int
	warnAt    int
	now       func() time.Time
}

type messageWindow struct {
	count    int
	start    time.Time
	warnings int
}

// NewMessageRateLimiter 创建消息速率限制器，达到一半额度时开始警告
func NewMessageRateLimiter(perSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		clients:   make(map[string]*messageWindow),
		perSecond: perSecond,
		warnAt:    perSecond / 2,
		now:       time.Now,
	}
}

// AllowMessage 记录一条消息；allowed 为 false 时消息应被丢弃
func (ml *MessageRateLimiter) AllowMessage(clientID string) (allowed, warning bool) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.now()
	w, ok := ml.clients[clientID]
	if !ok {
		ml.clients[clientID] = &messageWindow{count: 1, start: now}
		return true, false
	}
	if now.Sub(w.start) >= time.Second {
		w.count, w.start = 1, now
		return true, false
	}

	w.count++
	switch {
	case w.count > ml.perSecond:
		w.warnings++
		return false, true
	case w.count > ml.warnAt:
		return true, true
	default:
		return true, false
	}
}

// ShouldDisconnect 超速次数过多的客户端应被断开
func (ml *MessageRateLimiter) ShouldDisconnect(clientID string) bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	w, ok := ml.clients[clientID]
	return ok && w.warnings > maxMessageWarnings
}

// RemoveClient 客户端断开后清除记录
func (ml *MessageRateLimiter) RemoveClient(clientID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.clients, clientID)
}
