package room

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/palemoky/truco-paulista/internal/game/card"
	"github.com/palemoky/truco-paulista/internal/game/hand"
)

const (
	// WinningScore 率先达到该分数的队伍赢得整局
	WinningScore = 12

	defaultNextHandDelay = 1800 * time.Millisecond
	defaultLogSize       = 20
	defaultMaxNameLength = 20
)

// Player 房间中的玩家
type Player struct {
	ID   string // 连接句柄
	Name string
	Seat int // 座位号 0-3
}

// Team 玩家所属队伍
func (p *Player) Team() hand.Team {
	return hand.TeamOf(p.Seat)
}

// Settings 房间参数
type Settings struct {
	NextHandDelay time.Duration
	LogSize       int
	MaxNameLength int

	Scheduler  Scheduler        // nil 时使用 time.AfterFunc
	DeckSource func() card.Deck // nil 时每手使用新洗好的牌
	OnDealt    func(room *Room) // 延迟发牌完成后回调（房间锁外调用）
}

func (s Settings) withDefaults() Settings {
	if s.NextHandDelay <= 0 {
		s.NextHandDelay = defaultNextHandDelay
	}
	if s.LogSize <= 0 {
		s.LogSize = defaultLogSize
	}
	if s.MaxNameLength <= 0 {
		s.MaxNameLength = defaultMaxNameLength
	}
	if s.Scheduler == nil {
		s.Scheduler = timerScheduler{}
	}
	if s.DeckSource == nil {
		s.DeckSource = card.NewShuffledDeck
	}
	return s
}

// Room 一个四人对局房间，所有状态变更都在 mu 保护下串行执行
type Room struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	seats    [hand.Seats]*Player
	scores   [2]int
	dealer   int
	started  bool
	winner   hand.MaybeTeam
	hand     *hand.Hand
	log      *eventLog
	next     *pendingDeal
	nextSeq  uint64
	settings Settings
}

// NewRoom 创建房间
func NewRoom(id string, settings Settings) *Room {
	settings = settings.withDefaults()
	return &Room{
		ID:        id,
		CreatedAt: time.Now(),
		log:       newEventLog(settings.LogSize),
		settings:  settings,
	}
}

// SanitizeName 去掉首尾空白并按字符数截断
func SanitizeName(name string, maxLen int) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= maxLen {
		return name
	}
	return strings.TrimSpace(string([]rune(name)[:maxLen]))
}

// NormalizeRoomID 房间号去空白并转大写
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func (r *Room) count() int {
	n := 0
	for _, p := range r.seats {
		if p != nil {
			n++
		}
	}
	return n
}

func (r *Room) playerByID(id string) *Player {
	for _, p := range r.seats {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) nameAt(seat int) string {
	if p := r.seats[seat]; p != nil {
		return p.Name
	}
	return "?"
}

// IsStarted 对局是否进行中
func (r *Room) IsStarted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// PlayerIDs 按座位顺序返回已入座玩家的句柄
func (r *Room) PlayerIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, hand.Seats)
	for _, p := range r.seats {
		if p != nil {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Scores 当前比分
func (r *Room) Scores() [2]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scores
}
