package broadcast

import (
	"sync"
	"time"
)

// Timer is a cancellable handle for a scheduled callback. Stop reports whether it
// prevented the callback; stopping a fired or already stopped timer does nothing.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after d. Callbacks never run synchronously inside
// Schedule. Consumers that are not goroutine-safe must use a Scheduler that
// delivers callbacks on their own goroutine.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Timer
}

type SchedulerFunc func(d time.Duration, fn func()) Timer

func (f SchedulerFunc) Schedule(d time.Duration, fn func()) Timer { return f(d, fn) }

// RealScheduler is backed by time.AfterFunc; callbacks run on their own goroutine.
type RealScheduler struct{}

func (RealScheduler) Schedule(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// VirtualScheduler is a manual clock. Due callbacks run on the goroutine calling
// Advance/AdvanceTo, ordered by due time and then by scheduling order.
type VirtualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*virtualTimer
}

type virtualTimer struct {
	s   *VirtualScheduler
	due time.Time
	seq uint64
	fn  func()
}

func NewVirtualScheduler(start time.Time) *VirtualScheduler {
	return &VirtualScheduler{now: start}
}

func (s *VirtualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *VirtualScheduler) Schedule(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &virtualTimer{s: s, due: s.now.Add(d), seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Pending is the number of scheduled callbacks that have neither fired nor been stopped.
func (s *VirtualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *VirtualScheduler) Advance(d time.Duration) {
	s.AdvanceTo(s.Now().Add(d))
}

// AdvanceTo moves the clock to target, firing every callback due at or before it.
// Callbacks scheduled by callbacks fire too if they fall inside the window.
func (s *VirtualScheduler) AdvanceTo(target time.Time) {
	for {
		s.mu.Lock()
		next := s.popDueLocked(target)
		if next == nil {
			if target.After(s.now) {
				s.now = target
			}
			s.mu.Unlock()
			return
		}
		if next.due.After(s.now) {
			s.now = next.due
		}
		s.mu.Unlock()
		next.fn()
	}
}

func (s *VirtualScheduler) popDueLocked(target time.Time) *virtualTimer {
	idx := -1
	for i, t := range s.timers {
		if t.due.After(target) {
			continue
		}
		if idx < 0 || t.due.Before(s.timers[idx].due) ||
			(t.due.Equal(s.timers[idx].due) && t.seq < s.timers[idx].seq) {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}
	t := s.timers[idx]
	s.timers = append(s.timers[:idx], s.timers[idx+1:]...)
	return t
}

func (t *virtualTimer) Stop() bool {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.timers {
		if cur == t {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return true
		}
	}
	return false
}
