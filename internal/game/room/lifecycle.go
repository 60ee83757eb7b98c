package room

import (
	"fmt"
	"log"
	"strings"

	"github.com/palemoky/truco-paulista/internal/apperrors"
	"github.com/palemoky/truco-paulista/internal/game/hand"
)

// Join 玩家入座，返回分配到的座位（最小的空座位）。
// 第四位玩家入座且对局未开始时自动开局并立即发牌。
func (r *Room) Join(playerID, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = SanitizeName(name, r.settings.MaxNameLength)
	if r.count() >= len(r.seats) {
		return -1, apperrors.ErrRoomFull
	}
	if name == "" {
		return -1, apperrors.ErrInvalidName
	}
	for _, p := range r.seats {
		if p != nil && (strings.EqualFold(p.Name, name) || p.ID == playerID) {
			return -1, apperrors.ErrNameTaken
		}
	}

	seat := 0
	for r.seats[seat] != nil {
		seat++
	}
	r.seats[seat] = &Player{ID: playerID, Name: name, Seat: seat}
	r.log.add("%s entrou no assento %d (dupla %d).", name, seat, hand.TeamOf(seat)+1)
	log.Printf("👤 玩家 %s 加入房间 %s (座位 %d)", name, r.ID, seat)

	r.maybeStart()
	return seat, nil
}

// Leave 玩家离开。人数不足四人时取消待发牌、结束对局并丢弃当前手牌。
// 返回剩余人数；玩家不在房间时 ok 为 false。
func (r *Room) Leave(playerID string) (remaining int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerByID(playerID)
	if p == nil {
		return r.count(), false
	}

	r.seats[p.Seat] = nil
	r.log.add("%s saiu da sala.", p.Name)
	log.Printf("👋 玩家 %s 离开房间 %s (座位 %d)", p.Name, r.ID, p.Seat)

	if r.count() < len(r.seats) {
		r.cancelNextHand()
		if r.started {
			r.log.add("Partida interrompida: aguardando 4 jogadores.")
		}
		r.started = false
		r.hand = nil
	}
	return r.count(), true
}

// ResetMatch 清空比分、胜者与当前手牌，庄家回到座位 0，然后重新检查是否开局
func (r *Room) ResetMatch() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelNextHand()
	r.scores = [2]int{}
	r.winner = hand.NoTeam()
	r.hand = nil
	r.dealer = 0
	r.started = false
	r.log.add("Partida reiniciada.")
	log.Printf("🔄 房间 %s 重置对局", r.ID)

	r.maybeStart()
}

// maybeStart 满四人且未开局时开局，调用方需持有 r.mu
func (r *Room) maybeStart() {
	if r.started || r.count() < len(r.seats) {
		return
	}
	r.started = true
	r.scores = [2]int{}
	r.winner = hand.NoTeam()
	r.log.add("Partida iniciada!")
	log.Printf("🎮 房间 %s 开始对局", r.ID)
	r.startHand()
}

// startHand 用新牌堆发一手牌，首家为庄家下家，调用方需持有 r.mu
func (r *Room) startHand() {
	deck := r.settings.DeckSource()
	starter := (r.dealer + 1) % len(r.seats)
	h, err := hand.Deal(&deck, starter)
	if err != nil {
		panic(fmt.Sprintf("房间 %s 发牌失败: %v", r.ID, err))
	}
	r.hand = h
	r.log.add("Nova mão: vira %s, manilha %s. %s começa.", h.Vira(), h.Manilha(), r.nameAt(starter))
	log.Printf("🃏 房间 %s 发牌: vira %s, 庄家 %d, 首家 %d", r.ID, h.Vira(), r.dealer, starter)
}
