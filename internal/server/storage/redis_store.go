package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	roomKeyPrefix = "truco:room:"

	// 房间镜像过期时间
	roomExpiration = 2 * time.Hour
)

// RoomData 房间摘要（用于 Redis 镜像，仅供观测，不做恢复）
type RoomData struct {
	ID        string       `json:"id"`
	Players   []PlayerData `json:"players"`
	Scores    [2]int       `json:"scores"`
	Started   bool         `json:"started"`
	Dealer    int          `json:"dealer"`
	CreatedAt int64        `json:"created_at"`
	UpdatedAt int64        `json:"updated_at"`
}

// PlayerData 玩家摘要
type PlayerData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Seat int    `json:"seat"`
	Team int    `json:"team"`
}

// RedisStore Redis 存储；client 为 nil 时所有操作为空操作
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Enabled 是否连接了 Redis
func (rs *RedisStore) Enabled() bool {
	return rs != nil && rs.client != nil
}

// SaveRoom 保存房间摘要
func (rs *RedisStore) SaveRoom(ctx context.Context, data *RoomData) error {
	if !rs.Enabled() || data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	return rs.client.Set(ctx, roomKeyPrefix+data.ID, jsonData, roomExpiration).Err()
}

// LoadRoom 读取房间摘要，不存在时返回 nil
func (rs *RedisStore) LoadRoom(ctx context.Context, id string) (*RoomData, error) {
	if !rs.Enabled() {
		return nil, nil
	}

	data, err := rs.client.Get(ctx, roomKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}
	return &roomData, nil
}

// DeleteRoom 删除房间摘要
func (rs *RedisStore) DeleteRoom(ctx context.Context, id string) error {
	if !rs.Enabled() {
		return nil
	}
	return rs.client.Del(ctx, roomKeyPrefix+id).Err()
}

// GetAllRoomIDs 获取所有镜像中的房间号
func (rs *RedisStore) GetAllRoomIDs(ctx context.Context) ([]string, error) {
	if !rs.Enabled() {
		return nil, nil
	}

	var ids []string
	iter := rs.client.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(roomKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Close 关闭连接
func (rs *RedisStore) Close() error {
	if !rs.Enabled() {
		return nil
	}
	return rs.client.Close()
}
