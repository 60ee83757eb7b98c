// Package hand 实现一手 Truco Paulista 的出牌、比墩与加注逻辑。
// 本包不加锁，调用方（房间）负责串行化访问。
package hand

import (
	"fmt"
	"slices"

	"github.com/palemoky/truco-paulista/internal/apperrors"
	"github.com/palemoky/truco-paulista/internal/game/card"
)

const (
	Seats          = 4
	TricksPerHand  = 3
	CardsPerPlayer = 3
)

// Status 手牌状态
type Status int

const (
	StatusPlaying Status = iota
	StatusFinished
)

func (s Status) String() string {
	if s == StatusFinished {
		return "finished"
	}
	return "playing"
}

// EndReason 一手牌的结束方式
type EndReason int

const (
	EndByTricks  EndReason = iota // 比墩决出
	EndByDecline                  // 对方拒绝加注
)

// Play 桌面上的一张牌
type Play struct {
	Seat int
	Card card.Card
}

// Result 一手牌的结算
type Result struct {
	Winner Team
	Stake  int
	Reason EndReason
}

// Step 一次操作后的进展，供房间记录日志与结算
type Step struct {
	TrickIndex    int
	TrickComplete bool
	TrickWinner   MaybeTeam // 无值表示该墩平局
	WinningSeat   int       // 仅 TrickWinner 有值时有效
	HandOver      bool
	Result        Result // 仅 HandOver 时有效
}

// Hand 一手牌的完整状态
type Hand struct {
	vira         card.Card
	manilha      card.Rank
	cards        [Seats][]card.Card
	tricks       [TricksPerHand][]Play
	currentTrick int
	trickWins    [2]int
	outcomes     []MaybeTeam
	turnSeat     int
	stake        int
	level        int
	pending      Pending
	status       Status
	message      string
	result       Result
}

// Deal 从牌堆顶部翻出 vira，再按座位 0..3 各发 3 张，共消耗 13 张
func Deal(deck *card.Deck, starter int) (*Hand, error) {
	if starter < 0 || starter >= Seats {
		return nil, fmt.Errorf("invalid starter seat %d", starter)
	}

	top, err := deck.Draw(1)
	if err != nil {
		return nil, fmt.Errorf("draw vira: %w", err)
	}

	h := &Hand{
		vira:     top[0],
		manilha:  card.NextRank(top[0].Rank),
		turnSeat: starter,
		stake:    StakeLadder[0],
		status:   StatusPlaying,
		outcomes: make([]MaybeTeam, 0, TricksPerHand),
	}
	for seat := range Seats {
		cards, err := deck.Draw(CardsPerPlayer)
		if err != nil {
			return nil, fmt.Errorf("deal seat %d: %w", seat, err)
		}
		h.cards[seat] = cards
	}
	h.message = fmt.Sprintf("Nova mão! Vira %s, manilha %s.", h.vira, h.manilha)
	return h, nil
}

// CanPlay 检查座位 seat 当前是否可以出牌（不检查具体的牌）
func (h *Hand) CanPlay(seat int) error {
	if h.status != StatusPlaying {
		return apperrors.ErrHandInactive
	}
	if _, ok := h.pending.Get(); ok {
		return apperrors.ErrTrucoPending
	}
	if seat != h.turnSeat {
		return apperrors.ErrNotYourTurn
	}
	return nil
}

// Play 座位 seat 打出一张牌
func (h *Hand) Play(seat int, c card.Card) (Step, error) {
	if err := h.CanPlay(seat); err != nil {
		return Step{}, err
	}
	idx := slices.Index(h.cards[seat], c)
	if idx < 0 {
		return Step{}, apperrors.ErrCardNotFound
	}

	if len(h.tricks[h.currentTrick]) >= Seats {
		panic(fmt.Sprintf("trick %d already has %d plays", h.currentTrick, Seats))
	}

	h.cards[seat] = slices.Delete(h.cards[seat], idx, idx+1)
	trick := append(h.tricks[h.currentTrick], Play{Seat: seat, Card: c})
	h.tricks[h.currentTrick] = trick

	step := Step{TrickIndex: h.currentTrick}
	if len(trick) < Seats {
		// 按首家座位加已出牌数推进，保证每墩四个座位各出一次
		h.turnSeat = (trick[0].Seat + len(trick)) % Seats
		h.message = fmt.Sprintf("Vez do assento %d.", h.turnSeat)
		return step, nil
	}

	h.resolveTrick(&step)
	return step, nil
}

// resolveTrick 比较四张牌的强度并推进到下一墩或结束本手
func (h *Hand) resolveTrick(step *Step) {
	idx := h.currentTrick
	best, winnerSeat, tied := -1, -1, false
	for _, p := range h.tricks[idx] {
		s := card.Strength(p.Card, h.manilha)
		switch {
		case s > best:
			best, winnerSeat, tied = s, p.Seat, false
		case s == best:
			tied = true
		}
	}

	step.TrickComplete = true
	last := idx == TricksPerHand-1

	if tied {
		// 非最后一墩的平局记给最近一次分出胜负的队伍；最后一墩平局不计
		if !last {
			if prev, ok := h.lastDecisive(); ok {
				h.trickWins[prev]++
			}
		}
		h.outcomes = append(h.outcomes, NoTeam())
		step.TrickWinner = NoTeam()
		h.message = fmt.Sprintf("Vaza %d cangou!", idx+1)
	} else {
		team := TeamOf(winnerSeat)
		h.trickWins[team]++
		h.outcomes = append(h.outcomes, SomeTeam(team))
		step.TrickWinner = SomeTeam(team)
		step.WinningSeat = winnerSeat
		h.message = fmt.Sprintf("Vaza %d para a dupla %d.", idx+1, team+1)
	}

	if h.trickWins[Team0] >= 2 || h.trickWins[Team1] >= 2 || last {
		h.finish(Result{Winner: h.handWinner(), Stake: h.stake, Reason: EndByTricks})
		h.message = fmt.Sprintf("Dupla %d venceu a mão e ganhou %d ponto(s).", h.result.Winner+1, h.stake)
		step.HandOver = true
		step.Result = h.result
		return
	}

	h.currentTrick++
	if !tied {
		h.turnSeat = winnerSeat
	}
	// 平局时出牌权留在最后出牌的座位
}

// lastDecisive 最近一墩分出胜负的队伍
func (h *Hand) lastDecisive() (Team, bool) {
	for i := len(h.outcomes) - 1; i >= 0; i-- {
		if t, ok := h.outcomes[i].Get(); ok {
			return t, true
		}
	}
	return 0, false
}

// handWinner 赢墩多者胜；持平时取第一墩分出胜负的队伍；全部平局判给 0 队
func (h *Hand) handWinner() Team {
	switch {
	case h.trickWins[Team0] > h.trickWins[Team1]:
		return Team0
	case h.trickWins[Team1] > h.trickWins[Team0]:
		return Team1
	}
	for _, o := range h.outcomes {
		if t, ok := o.Get(); ok {
			return t
		}
	}
	// 三墩全平时的约定兜底，正常牌力下几乎不会出现
	return Team0
}

func (h *Hand) finish(res Result) {
	h.status = StatusFinished
	h.pending = Pending{}
	h.result = res
}

func (h *Hand) Vira() card.Card { return h.vira }
func (h *Hand) Manilha() card.Rank { return h.manilha }
func (h *Hand) CurrentTrick() int { return h.currentTrick }
func (h *Hand) TrickWins() [2]int { return h.trickWins }
func (h *Hand) TurnSeat() int { return h.turnSeat }
func (h *Hand) Stake() int { return h.stake }
func (h *Hand) Level() int { return h.level }
func (h *Hand) Pending() Pending { return h.pending }
func (h *Hand) Status() Status { return h.status }
func (h *Hand) Message() string { return h.message }
func (h *Hand) SetMessage(msg string) { h.message = msg }
func (h *Hand) Outcomes() []MaybeTeam { return slices.Clone(h.outcomes) }
func (h *Hand) Trick(i int) []Play { return slices.Clone(h.tricks[i]) }

// Table 桌面上当前一墩的牌；本手结束后保留最后一墩
func (h *Hand) Table() []Play {
	return slices.Clone(h.tricks[h.currentTrick])
}

// Cards 某座位的手牌副本
func (h *Hand) Cards(seat int) []card.Card {
	if seat < 0 || seat >= Seats {
		return nil
	}
	return slices.Clone(h.cards[seat])
}

// Result 本手结算，仅在结束后有效
func (h *Hand) Result() (Result, bool) {
	return h.result, h.status == StatusFinished
}
