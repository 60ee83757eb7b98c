//go:build !production

package room

import (
	"sync"
	"time"

	"github.com/palemoky/truco-paulista/internal/game/card"
)

// ManualScheduler 手动触发的调度器，用于测试
type ManualScheduler struct {
	mu    sync.Mutex
	tasks []*ManualTask
}

// ManualTask ManualScheduler 调度的任务
type ManualTask struct {
	Delay time.Duration

	mu      sync.Mutex
	fn      func()
	stopped bool
	fired   bool
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &ManualTask{Delay: d, fn: f}
	s.tasks = append(s.tasks, t)
	return t
}

// Last 最近调度的任务，没有时返回 nil
func (s *ManualScheduler) Last() *ManualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tasks) == 0 {
		return nil
	}
	return s.tasks[len(s.tasks)-1]
}

// Count 调度过的任务数
func (s *ManualScheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (t *ManualTask) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Fire 未取消时执行任务，返回是否执行
func (t *ManualTask) Fire() bool {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return false
	}
	t.fired = true
	t.mu.Unlock()
	t.fn()
	return true
}

// ForceFire 无视取消状态执行任务，模拟取消与到期同时发生
func (t *ManualTask) ForceFire() {
	t.mu.Lock()
	t.fired = true
	t.mu.Unlock()
	t.fn()
}

// Stopped 是否已被取消
func (t *ManualTask) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// DeckQueue 依次返回给定牌堆，用完后返回洗好的新牌
func DeckQueue(decks ...card.Deck) func() card.Deck {
	var mu sync.Mutex
	return func() card.Deck {
		mu.Lock()
		defer mu.Unlock()
		if len(decks) == 0 {
			return card.NewShuffledDeck()
		}
		d := decks[0]
		decks = decks[1:]
		return d
	}
}
