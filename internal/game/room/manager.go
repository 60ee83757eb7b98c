package room

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/palemoky/truco-paulista/internal/apperrors"
	"github.com/palemoky/truco-paulista/internal/logger"
	"github.com/palemoky/truco-paulista/internal/protocol"
	"github.com/palemoky/truco-paulista/internal/server/storage"
	"github.com/palemoky/truco-paulista/internal/types"
)

const (
	storeTimeout   = 3 * time.Second
	storeQueueSize = 256
)

// storeOp 一次 Redis 写操作
type storeOp func(ctx context.Context) error

// RoomManager 房间注册表：首次加入时创建房间，最后一人离开时销毁。
// 加锁顺序固定为 注册表 -> 房间。
type RoomManager struct {
	store       *storage.RedisStore
	leaderboard *storage.Leaderboard
	settings    Settings

	rooms  map[string]*Room
	notify func(*Room)
	mu     sync.RWMutex

	// Redis 写操作按提交顺序由单个协程执行，避免删除后又被旧的保存覆盖
	ops      chan storeOp
	done     chan struct{}
	stopOnce sync.Once
}

// NewRoomManager 创建房间管理器，store 与 leaderboard 可为 nil
func NewRoomManager(store *storage.RedisStore, leaderboard *storage.Leaderboard, settings Settings) *RoomManager {
	rm := &RoomManager{
		store:       store,
		leaderboard: leaderboard,
		rooms:       make(map[string]*Room),
		ops:         make(chan storeOp, storeQueueSize),
		done:        make(chan struct{}),
	}
	settings.OnDealt = rm.onDealt
	rm.settings = settings

	if store.Enabled() || leaderboard != nil {
		go rm.storeLoop()
	}
	return rm
}

func (rm *RoomManager) storeLoop() {
	for {
		select {
		case op := <-rm.ops:
			ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			if err := op(ctx); err != nil {
				logger.LogError("Redis 写入失败: %v", err)
			}
			cancel()
		case <-rm.done:
			return
		}
	}
}

func (rm *RoomManager) enqueue(op storeOp) {
	select {
	case rm.ops <- op:
	default:
		log.Printf("⚠️ Redis 写入队列已满，丢弃一次写入")
	}
}

// ClearStaleMirrors 删除上次运行遗留的房间镜像。房间不做恢复，启动时注册表为空，
// 镜像也应为空。返回删除的数量。
func (rm *RoomManager) ClearStaleMirrors(ctx context.Context) (int, error) {
	if !rm.store.Enabled() {
		return 0, nil
	}
	ids, err := rm.store.GetAllRoomIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("列出房间镜像: %w", err)
	}
	for i, id := range ids {
		if err := rm.store.DeleteRoom(ctx, id); err != nil {
			return i, fmt.Errorf("删除房间镜像 %s: %w", id, err)
		}
	}
	return len(ids), nil
}

// SetNotifier 设置延迟发牌后的广播回调
func (rm *RoomManager) SetNotifier(fn func(*Room)) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.notify = fn
}

// JoinRoom 加入（必要时创建）房间。已在其他房间的客户端会先离开原房间。
func (rm *RoomManager) JoinRoom(client types.ClientInterface, roomID, name string) (*Room, int, error) {
	roomID = NormalizeRoomID(roomID)
	if roomID == "" {
		return nil, -1, apperrors.ErrInvalidMsg
	}
	if client.GetRoom() != "" {
		rm.LeaveRoom(client)
	}

	rm.mu.Lock()
	room, exists := rm.rooms[roomID]
	if !exists {
		room = NewRoom(roomID, rm.settings)
		rm.rooms[roomID] = room
		log.Printf("🏠 房间 %s 已创建", roomID)
	}
	seat, err := room.Join(client.GetID(), name)
	if err != nil && !exists {
		delete(rm.rooms, roomID)
	}
	rm.mu.Unlock()

	if err != nil {
		return nil, -1, err
	}

	client.SetRoom(roomID)
	rm.persist(room)
	return room, seat, nil
}

// LeaveRoom 离开当前房间；房间空了就销毁。返回仍然存在的房间（供广播），否则为 nil。
func (rm *RoomManager) LeaveRoom(client types.ClientInterface) *Room {
	roomID := client.GetRoom()
	if roomID == "" {
		return nil
	}
	client.SetRoom("")

	rm.mu.Lock()
	room, exists := rm.rooms[roomID]
	if !exists {
		rm.mu.Unlock()
		return nil
	}
	remaining, ok := room.Leave(client.GetID())
	if ok && remaining == 0 {
		delete(rm.rooms, roomID)
	}
	rm.mu.Unlock()

	if !ok {
		return room
	}
	if remaining == 0 {
		log.Printf("🏠 房间 %s 已解散", roomID)
		rm.forget(roomID)
		return nil
	}
	rm.persist(room)
	return room
}

// roomOf 客户端所在的房间
func (rm *RoomManager) roomOf(client types.ClientInterface) (*Room, error) {
	roomID := client.GetRoom()
	if roomID == "" {
		return nil, apperrors.ErrNotInRoom
	}
	room := rm.GetRoom(roomID)
	if room == nil {
		return nil, apperrors.ErrRoomNotFound
	}
	return room, nil
}

// PlayCard 出牌。只要客户端在房间中，无论成功与否都返回房间以便广播。
func (rm *RoomManager) PlayCard(client types.ClientInterface, cardID string) (*Room, error) {
	room, err := rm.roomOf(client)
	if err != nil {
		return nil, err
	}
	out, err := room.PlayCard(client.GetID(), cardID)
	rm.afterAction(room, out)
	return room, err
}

// CallTruco 加注
func (rm *RoomManager) CallTruco(client types.ClientInterface) (*Room, error) {
	room, err := rm.roomOf(client)
	if err != nil {
		return nil, err
	}
	return room, room.CallTruco(client.GetID())
}

// RespondTruco 回应加注
func (rm *RoomManager) RespondTruco(client types.ClientInterface, accept bool) (*Room, error) {
	room, err := rm.roomOf(client)
	if err != nil {
		return nil, err
	}
	out, err := room.RespondTruco(client.GetID(), accept)
	rm.afterAction(room, out)
	return room, err
}

// ResetMatch 重置房间对局
func (rm *RoomManager) ResetMatch(client types.ClientInterface) (*Room, error) {
	room, err := rm.roomOf(client)
	if err != nil {
		return nil, err
	}
	room.ResetMatch()
	rm.persist(room)
	return room, nil
}

func (rm *RoomManager) afterAction(room *Room, out Outcome) {
	if !out.HandOver {
		return
	}
	rm.persist(room)
	if out.MatchOver {
		rm.recordMatch(room.ID, out)
	}
}

func (rm *RoomManager) onDealt(room *Room) {
	rm.persist(room)

	rm.mu.RLock()
	notify := rm.notify
	rm.mu.RUnlock()
	if notify != nil {
		notify(room)
	}
}

// persist 异步写入房间镜像
func (rm *RoomManager) persist(room *Room) {
	if !rm.store.Enabled() {
		return
	}
	data := room.ToRoomData()
	rm.enqueue(func(ctx context.Context) error {
		if err := rm.store.SaveRoom(ctx, data); err != nil {
			return fmt.Errorf("保存房间 %s: %w", data.ID, err)
		}
		return nil
	})
}

func (rm *RoomManager) forget(roomID string) {
	if !rm.store.Enabled() {
		return
	}
	rm.enqueue(func(ctx context.Context) error {
		if err := rm.store.DeleteRoom(ctx, roomID); err != nil {
			return fmt.Errorf("删除房间 %s: %w", roomID, err)
		}
		return nil
	})
}

func (rm *RoomManager) recordMatch(roomID string, out Outcome) {
	if rm.leaderboard == nil {
		return
	}
	rm.enqueue(func(ctx context.Context) error {
		if err := rm.leaderboard.RecordMatchResult(ctx, out.Winners, out.Losers); err != nil {
			return fmt.Errorf("房间 %s 记录对局结果: %w", roomID, err)
		}
		return nil
	})
}

// GetRoom 获取房间
func (rm *RoomManager) GetRoom(id string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[NormalizeRoomID(id)]
}

// GetRoomList 按房间号排序的房间列表
func (rm *RoomManager) GetRoomList() []protocol.RoomListItem {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.mu.RUnlock()

	items := make([]protocol.RoomListItem, 0, len(rooms))
	for _, room := range rooms {
		items = append(items, room.ListItem())
	}
	slices.SortFunc(items, func(a, b protocol.RoomListItem) int {
		return strings.Compare(a.RoomID, b.RoomID)
	})
	return items
}

// GetRoomCount 房间总数
func (rm *RoomManager) GetRoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// GetActiveGamesCount 进行中的对局数量
func (rm *RoomManager) GetActiveGamesCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	count := 0
	for _, room := range rm.rooms {
		if room.IsStarted() {
			count++
		}
	}
	return count
}

// Shutdown 取消所有房间等待中的发牌并停止 Redis 写入协程
func (rm *RoomManager) Shutdown() {
	rm.mu.RLock()
	for _, room := range rm.rooms {
		room.Stop()
	}
	rm.mu.RUnlock()

	rm.stopOnce.Do(func() { close(rm.done) })
}
