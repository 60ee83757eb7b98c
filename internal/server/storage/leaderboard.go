package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	playerStatsKey    = "truco:player:stats:"
	leaderboardKey    = "truco:leaderboard:score"
	dailyLeaderboard  = "truco:leaderboard:daily:"
	weeklyLeaderboard = "truco:leaderboard:weekly:"
)

// 积分规则
const (
	WinMatch  = 20 // 赢下一局（先到 12 分）
	LoseMatch = -5 // 输掉一局

	StreakBonus3 = 5  // 3 连胜加成
	StreakBonus5 = 10 // 5 连胜加成
)

// PlayerStats 玩家统计（以小写玩家名为键，连接 ID 每次都不同）
type PlayerStats struct {
	PlayerName    string `json:"player_name"`
	TotalMatches  int    `json:"total_matches"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Score         int    `json:"score"`
	CurrentStreak int    `json:"current_streak"` // 正数为连胜，负数为连败
	MaxWinStreak  int    `json:"max_win_streak"`
	LastPlayedAt  int64  `json:"last_played_at"`
	CreatedAt     int64  `json:"created_at"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Wins       int     `json:"wins"`
	Matches    int     `json:"matches"`
	WinRate    float64 `json:"win_rate"`
}

// Leaderboard 排行榜；client 为 nil 时为空操作
type Leaderboard struct {
	redis *redis.Client
	now   func() time.Time
}

// NewLeaderboard 创建排行榜
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{redis: client, now: time.Now}
}

func statsKey(name string) string {
	return playerStatsKey + strings.ToLower(name)
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil
func (lb *Leaderboard) GetPlayerStats(ctx context.Context, name string) (*PlayerStats, error) {
	if lb.redis == nil {
		return nil, nil
	}

	data, err := lb.redis.Get(ctx, statsKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("反序列化玩家统计失败: %w", err)
	}
	return &stats, nil
}

func (lb *Leaderboard) savePlayerStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lb.redis.Set(ctx, statsKey(stats.PlayerName), data, 0).Err()
}

func applyResult(stats *PlayerStats, won bool) {
	stats.TotalMatches++
	change := LoseMatch
	if won {
		stats.Wins++
		stats.CurrentStreak = max(1, stats.CurrentStreak+1)
		change = WinMatch + streakBonus(stats.CurrentStreak)
	} else {
		stats.Losses++
		stats.CurrentStreak = min(-1, stats.CurrentStreak-1)
	}
	stats.MaxWinStreak = max(stats.MaxWinStreak, stats.CurrentStreak)
	stats.Score = max(0, stats.Score+change)
}

func streakBonus(streak int) int {
	switch {
	case streak >= 5:
		return StreakBonus5
	case streak >= 3:
		return StreakBonus3
	default:
		return 0
	}
}

// RecordMatchResult 记录一局结束后双方玩家的结果
func (lb *Leaderboard) RecordMatchResult(ctx context.Context, winners, losers []string) error {
	if lb.redis == nil {
		return nil
	}

	for _, name := range winners {
		if err := lb.record(ctx, name, true); err != nil {
			return err
		}
	}
	for _, name := range losers {
		if err := lb.record(ctx, name, false); err != nil {
			return err
		}
	}
	return nil
}

func (lb *Leaderboard) record(ctx context.Context, name string, won bool) error {
	stats, err := lb.GetPlayerStats(ctx, name)
	if err != nil {
		return err
	}
	now := lb.now()
	if stats == nil {
		stats = &PlayerStats{CreatedAt: now.Unix()}
	}
	stats.PlayerName = name
	stats.LastPlayedAt = now.Unix()
	applyResult(stats, won)

	if err := lb.savePlayerStats(ctx, stats); err != nil {
		return err
	}
	return lb.updateRankings(ctx, stats)
}

func (lb *Leaderboard) updateRankings(ctx context.Context, stats *PlayerStats) error {
	member := strings.ToLower(stats.PlayerName)
	z := redis.Z{Score: float64(stats.Score), Member: member}
	now := lb.now()

	dailyKey := dailyLeaderboard + now.Format("2006-01-02")
	year, week := now.ISOWeek()
	weeklyKey := fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)

	pipe := lb.redis.TxPipeline()
	pipe.ZAdd(ctx, leaderboardKey, z)
	pipe.ZAdd(ctx, dailyKey, z)
	pipe.Expire(ctx, dailyKey, 48*time.Hour)
	pipe.ZAdd(ctx, weeklyKey, z)
	pipe.Expire(ctx, weeklyKey, 8*24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// GetLeaderboard 获取排行榜，period 为 total / daily / weekly
func (lb *Leaderboard) GetLeaderboard(ctx context.Context, period string, limit int) ([]LeaderboardEntry, error) {
	if lb.redis == nil || limit <= 0 {
		return []LeaderboardEntry{}, nil
	}

	key := leaderboardKey
	now := lb.now()
	switch period {
	case "daily":
		key = dailyLeaderboard + now.Format("2006-01-02")
	case "weekly":
		year, week := now.ISOWeek()
		key = fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)
	}

	results, err := lb.redis.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for _, result := range results {
		member, ok := result.Member.(string)
		if !ok {
			continue
		}
		stats, err := lb.GetPlayerStats(ctx, member)
		if err != nil || stats == nil {
			continue
		}

		winRate := 0.0
		if stats.TotalMatches > 0 {
			winRate = float64(stats.Wins) / float64(stats.TotalMatches) * 100
		}
		entries = append(entries, LeaderboardEntry{
			Rank:       len(entries) + 1,
			PlayerName: stats.PlayerName,
			Score:      int(result.Score),
			Wins:       stats.Wins,
			Matches:    stats.TotalMatches,
			WinRate:    winRate,
		})
	}
	return entries, nil
}

// GetPlayerRank 玩家总榜排名，未上榜返回 -1
func (lb *Leaderboard) GetPlayerRank(ctx context.Context, name string) (int64, error) {
	if lb.redis == nil {
		return -1, nil
	}
	rank, err := lb.redis.ZRevRank(ctx, leaderboardKey, strings.ToLower(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil
}
