//go:build !production

package testutil

import (
	"sync"
	"time"

	"github.com/palemoky/gamehall/internal/game"
)

// FakeScheduler 手动推进时间的调度器，回调在 Advance 中同步执行
type FakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *FakeScheduler
	at      time.Time
	f       func() bool
	stopped bool
	fired   bool
}

// NewFakeScheduler 从一个固定时间点开始
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *FakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *FakeScheduler) AfterFunc(d time.Duration, f func() bool) game.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, at: s.now.Add(d), f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance 推进时间，按到期顺序触发回调，返回有多少回调报告了状态变化
func (s *FakeScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now.Add(d)
	changed := 0
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		next.fired = true
		s.now = next.at
		s.mu.Unlock()
		if next.f() {
			changed++
		}
		s.mu.Lock()
	}
	s.now = target
	s.mu.Unlock()
	return changed
}

func (s *FakeScheduler) nextDue(target time.Time) *fakeTimer {
	var next *fakeTimer
	for _, t := range s.timers {
		if t.stopped || t.fired || t.at.After(target) {
			continue
		}
		if next == nil || t.at.Before(next.at) {
			next = t
		}
	}
	return next
}

// Pending 尚未触发也未取消的计时器数量
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
