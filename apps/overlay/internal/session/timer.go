package session

import (
	"time"

	"holdem-broadcast/broadcast"
)

// loopTimer delivers its callback through the session loop, so the reconciler only
// ever runs on the loop goroutine. stopped is loop-owned.
type loopTimer struct {
	s       *Session
	fn      func()
	timer   *time.Timer
	stopped bool
}

// Schedule implements broadcast.Scheduler. It must be called on the loop goroutine.
func (s *Session) Schedule(d time.Duration, fn func()) broadcast.Timer {
	t := &loopTimer{s: s, fn: fn}
	s.timers[t] = struct{}{}
	s.pendingTimers.Add(1)
	t.timer = time.AfterFunc(d, func() {
		s.post(Event{Type: EventTimer, timer: t})
	})
	return t
}

// Stop implements broadcast.Timer. A callback already queued on the loop is
// dropped when its event is handled.
func (t *loopTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	t.s.forget(t)
	return true
}

func (s *Session) forget(t *loopTimer) {
	if _, ok := s.timers[t]; ok {
		delete(s.timers, t)
		s.pendingTimers.Add(-1)
	}
}
