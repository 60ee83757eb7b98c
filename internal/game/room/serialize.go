package room

import (
	"time"

	"github.com/palemoky/truco-paulista/internal/server/storage"
)

// ToRoomData 转换为 Redis 镜像用的房间摘要
func (r *Room) ToRoomData() *storage.RoomData {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := &storage.RoomData{
		ID:        r.ID,
		Players:   make([]storage.PlayerData, 0, len(r.seats)),
		Scores:    r.scores,
		Started:   r.started,
		Dealer:    r.dealer,
		CreatedAt: r.CreatedAt.Unix(),
		UpdatedAt: time.Now().Unix(),
	}
	for _, p := range r.seats {
		if p == nil {
			continue
		}
		data.Players = append(data.Players, storage.PlayerData{
			ID:   p.ID,
			Name: p.Name,
			Seat: p.Seat,
			Team: int(p.Team()),
		})
	}
	return data
}
