package room

import (
	"github.com/palemoky/truco-paulista/internal/game/hand"
	"github.com/palemoky/truco-paulista/internal/protocol"
	"github.com/palemoky/truco-paulista/internal/protocol/convert"
)

// PublicState 所有玩家看到的公共状态，不含任何人的手牌内容
func (r *Room) PublicState() protocol.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.publicState()
}

// PrivateState 某位玩家的私有视图：公共状态加上自己的手牌
func (r *Room) PrivateState(playerID string) protocol.StatePayload {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := protocol.StatePayload{RoomState: r.publicState()}
	if p := r.playerByID(playerID); p != nil {
		me := &protocol.SelfInfo{
			ID:   p.ID,
			Name: p.Name,
			Seat: p.Seat,
			Team: int(p.Team()),
			Hand: []protocol.CardInfo{},
		}
		if r.hand != nil {
			me.Hand = convert.CardsToInfos(r.hand.Cards(p.Seat))
		}
		state.Me = me
	}
	return state
}

func (r *Room) publicState() protocol.RoomState {
	state := protocol.RoomState{
		RoomID:      r.ID,
		Started:     r.started,
		Players:     make([]protocol.PlayerInfo, 0, len(r.seats)),
		Scores:      r.scores,
		MatchWinner: r.winner.IntPtr(),
		Log:         r.log.snapshot(),
	}

	for _, p := range r.seats {
		if p == nil {
			continue
		}
		info := protocol.PlayerInfo{ID: p.ID, Name: p.Name, Seat: p.Seat, Team: int(p.Team())}
		if r.hand != nil {
			info.CardCount = len(r.hand.Cards(p.Seat))
		}
		state.Players = append(state.Players, info)
	}

	if r.hand != nil {
		state.Hand = r.handState()
	}
	return state
}

func (r *Room) handState() *protocol.HandState {
	h := r.hand
	table := h.Table()
	hs := &protocol.HandState{
		Vira:         convert.CardToInfo(h.Vira()),
		ManilhaRank:  h.Manilha().String(),
		Table:        make([]protocol.TableCard, len(table)),
		CurrentTrick: h.CurrentTrick(),
		TrickWins:    h.TrickWins(),
		TurnSeat:     h.TurnSeat(),
		Stake:        h.Stake(),
		Status:       h.Status().String(),
		Message:      h.Message(),
	}
	for i, play := range table {
		hs.Table[i] = protocol.TableCard{
			Seat:       play.Seat,
			PlayerName: r.nameAt(play.Seat),
			Card:       convert.CardToInfo(play.Card),
		}
	}
	if bet, ok := h.Pending().Get(); ok {
		hs.PendingTruco = &protocol.PendingTruco{
			RequestingTeam: int(bet.RequestingTeam),
			RespondingTeam: int(bet.RespondingTeam),
			ProposedStake:  bet.ProposedStake(),
			CalledBy:       bet.CalledBy,
		}
	}
	return hs
}

// ListItem 房间列表项
func (r *Room) ListItem() protocol.RoomListItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return protocol.RoomListItem{
		RoomID:      r.ID,
		PlayerCount: r.count(),
		MaxPlayers:  hand.Seats,
		Started:     r.started,
	}
}
