package room

import (
	"log"
	"time"
)

// Task 已调度的延迟任务
type Task interface {
	// Stop 取消任务；任务已执行或已取消时返回 false
	Stop() bool
}

// Scheduler 延迟任务调度器
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// pendingDeal 等待中的"下一手发牌"，seq 用于识别过期的回调
type pendingDeal struct {
	seq  uint64
	task Task
}

// scheduleNextHand 调度下一手发牌，调用方需持有 r.mu
func (r *Room) scheduleNextHand() {
	r.cancelNextHand()
	r.nextSeq++
	seq := r.nextSeq
	task := r.settings.Scheduler.AfterFunc(r.settings.NextHandDelay, func() {
		r.fireNextHand(seq)
	})
	r.next = &pendingDeal{seq: seq, task: task}
}

// cancelNextHand 取消等待中的发牌，可重复调用，调用方需持有 r.mu
func (r *Room) cancelNextHand() {
	if r.next == nil {
		return
	}
	r.next.task.Stop()
	r.next = nil
}

// fireNextHand 计时到期后进入房间锁重新检查条件再发牌
func (r *Room) fireNextHand(seq uint64) {
	r.mu.Lock()
	if r.next == nil || r.next.seq != seq {
		// 已被取消或被新的调度替换
		r.mu.Unlock()
		return
	}
	r.next = nil
	if !r.started || r.count() < len(r.seats) {
		r.mu.Unlock()
		log.Printf("⏭️ 房间 %s 条件已变化，跳过发牌", r.ID)
		return
	}
	r.startHand()
	notify := r.settings.OnDealt
	r.mu.Unlock()

	if notify != nil {
		notify(r)
	}
}

// HasPendingDeal 是否有等待中的发牌
func (r *Room) HasPendingDeal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next != nil
}

// Stop 取消等待中的发牌（服务关闭时使用）
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelNextHand()
}
