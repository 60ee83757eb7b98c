package room

import (
	"fmt"
	"log"

	"github.com/palemoky/truco-paulista/internal/apperrors"
	"github.com/palemoky/truco-paulista/internal/game/card"
	"github.com/palemoky/truco-paulista/internal/game/hand"
)

// 各档加注的叫法
var betCalls = [...]string{"", "truco", "seis", "nove", "doze"}

// Outcome 一次动作的结果，供调用方持久化与统计
type Outcome struct {
	HandOver  bool
	MatchOver bool
	Winner    hand.Team // 仅 MatchOver 时有效
	Winners   []string  // 获胜队伍玩家名
	Losers    []string
}

func (r *Room) actor(playerID string) (*Player, error) {
	p := r.playerByID(playerID)
	if p == nil {
		return nil, apperrors.ErrNotInRoom
	}
	if r.hand == nil {
		return nil, apperrors.ErrHandInactive
	}
	return p, nil
}

// PlayCard 出牌
func (r *Room) PlayCard(playerID, cardID string) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.actor(playerID)
	if err != nil {
		return Outcome{}, err
	}
	c, err := card.ParseID(cardID)
	if err != nil {
		if err := r.hand.CanPlay(p.Seat); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, apperrors.ErrCardNotFound
	}

	step, err := r.hand.Play(p.Seat, c)
	if err != nil {
		return Outcome{}, err
	}

	if !step.TrickComplete {
		r.hand.SetMessage(fmt.Sprintf("%s jogou %s. Vez de %s.", p.Name, c, r.nameAt(r.hand.TurnSeat())))
		return Outcome{}, nil
	}

	if _, ok := step.TrickWinner.Get(); ok {
		r.log.add("Vaza %d: %s venceu com a maior carta.", step.TrickIndex+1, r.nameAt(step.WinningSeat))
	} else {
		r.log.add("Vaza %d: cangou (empate).", step.TrickIndex+1)
	}

	if step.HandOver {
		return r.concludeHand(step.Result), nil
	}
	r.hand.SetMessage(fmt.Sprintf("%s Vez de %s.", r.hand.Message(), r.nameAt(r.hand.TurnSeat())))
	return Outcome{}, nil
}

// CallTruco 当前回合的玩家发起加注
func (r *Room) CallTruco(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.actor(playerID)
	if err != nil {
		return err
	}
	bet, err := r.hand.CallTruco(p.Seat)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("%s pediu %s! Mão valendo %d se aceitar.", p.Name, betCalls[bet.Level], bet.ProposedStake())
	r.hand.SetMessage(msg)
	r.log.add("%s", msg)
	log.Printf("📣 房间 %s: %s 加注到 %d", r.ID, p.Name, bet.ProposedStake())
	return nil
}

// RespondTruco 被加注方回应；拒绝时本手立即结算
func (r *Room) RespondTruco(playerID string, accept bool) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerByID(playerID)
	if p == nil {
		return Outcome{}, apperrors.ErrNotInRoom
	}
	if r.hand == nil {
		return Outcome{}, apperrors.ErrNoTrucoPending
	}

	step, err := r.hand.RespondTruco(p.Seat, accept)
	if err != nil {
		return Outcome{}, err
	}

	if accept {
		msg := fmt.Sprintf("%s aceitou! Mão valendo %d.", p.Name, r.hand.Stake())
		r.hand.SetMessage(msg)
		r.log.add("%s", msg)
		return Outcome{}, nil
	}

	r.log.add("%s correu.", p.Name)
	return r.concludeHand(step.Result), nil
}

// concludeHand 结算一手牌：加分、检查整局结束、否则轮换庄家并调度下一手。
// 调用方需持有 r.mu。
func (r *Room) concludeHand(res hand.Result) Outcome {
	r.scores[res.Winner] += res.Stake
	msg := fmt.Sprintf("Dupla %d ganhou a mão (+%d). Placar: %d x %d.",
		res.Winner+1, res.Stake, r.scores[hand.Team0], r.scores[hand.Team1])
	r.hand.SetMessage(msg)
	r.log.add("%s", msg)

	out := Outcome{HandOver: true}
	if r.scores[res.Winner] >= WinningScore {
		r.winner = hand.SomeTeam(res.Winner)
		r.started = false
		r.log.add("Dupla %d venceu a partida!", res.Winner+1)
		log.Printf("🏆 房间 %s 对局结束，队伍 %d 获胜 (%d x %d)",
			r.ID, res.Winner, r.scores[hand.Team0], r.scores[hand.Team1])

		out.MatchOver = true
		out.Winner = res.Winner
		for _, p := range r.seats {
			if p == nil {
				continue
			}
			if p.Team() == res.Winner {
				out.Winners = append(out.Winners, p.Name)
			} else {
				out.Losers = append(out.Losers, p.Name)
			}
		}
		return out
	}

	r.dealer = (r.dealer + 1) % len(r.seats)
	r.scheduleNextHand()
	return out
}
