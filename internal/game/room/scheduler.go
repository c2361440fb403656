package room

import (
	"time"

	"github.com/palemoky/gamehall/internal/game"
)

// roomScheduler 引擎计时器的回调在房间锁内执行，并只对创建它的那一局生效
type roomScheduler struct {
	r     *Room
	epoch int
}

func (s roomScheduler) Now() time.Time { return s.r.m.clock.Now() }

func (s roomScheduler) AfterFunc(d time.Duration, f func() bool) game.Timer {
	r := s.r
	return r.m.clock.AfterFunc(d, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.closed || r.epoch != s.epoch || r.Engine == nil {
			return false
		}
		if !f() {
			return false
		}
		r.publishLocked()
		return true
	})
}
