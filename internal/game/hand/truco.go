package hand

import (
	"fmt"

	"github.com/palemoky/truco-paulista/internal/apperrors"
)

// StakeLadder 每手分值只能沿此阶梯上升
var StakeLadder = [...]int{1, 3, 6, 9, 12}

// MaxLevel 分值阶梯最高档
const MaxLevel = len(StakeLadder) - 1

// Bet 一次加注请求
type Bet struct {
	RequestingTeam Team
	RespondingTeam Team
	Level          int // 提议的阶梯档位
	CalledBy       int // 叫注的座位
}

// ProposedStake 提议的分值
func (b Bet) ProposedStake() int {
	return StakeLadder[b.Level]
}

// Pending 可选的待回应加注，同一手牌最多一个
type Pending struct {
	bet Bet
	ok  bool
}

// Get 取出待回应加注
func (p Pending) Get() (Bet, bool) {
	return p.bet, p.ok
}

// CallTruco 当前回合的玩家发起加注
func (h *Hand) CallTruco(seat int) (Bet, error) {
	if h.status != StatusPlaying {
		return Bet{}, apperrors.ErrHandInactive
	}
	if _, ok := h.pending.Get(); ok {
		return Bet{}, apperrors.ErrTrucoPending
	}
	if seat != h.turnSeat {
		return Bet{}, apperrors.ErrNotYourTurn
	}
	if h.level >= MaxLevel {
		return Bet{}, apperrors.ErrStakeAtLimit
	}

	team := TeamOf(seat)
	bet := Bet{
		RequestingTeam: team,
		RespondingTeam: team.Other(),
		Level:          h.level + 1,
		CalledBy:       seat,
	}
	h.pending = Pending{bet: bet, ok: true}
	h.message = fmt.Sprintf("Dupla %d pediu %d! A dupla adversária decide.", team+1, bet.ProposedStake())
	return bet, nil
}

// RespondTruco 被加注方回应。接受则分值上升，放弃则本手立即结束，
// 加注方按加注前的分值赢下本手。
func (h *Hand) RespondTruco(seat int, accept bool) (Step, error) {
	bet, ok := h.pending.Get()
	if !ok {
		return Step{}, apperrors.ErrNoTrucoPending
	}
	if TeamOf(seat) != bet.RespondingTeam {
		return Step{}, apperrors.ErrWrongTeam
	}

	h.pending = Pending{}
	step := Step{TrickIndex: h.currentTrick}

	if accept {
		h.level = bet.Level
		h.stake = StakeLadder[h.level]
		h.message = fmt.Sprintf("Aposta aceita! Mão valendo %d.", h.stake)
		return step, nil
	}

	h.finish(Result{Winner: bet.RequestingTeam, Stake: h.stake, Reason: EndByDecline})
	h.message = fmt.Sprintf("Dupla %d correu. Dupla %d ganhou %d ponto(s).",
		bet.RespondingTeam+1, bet.RequestingTeam+1, h.stake)
	step.HandOver = true
	step.Result = h.result
	return step, nil
}
