package broadcast

import (
	"errors"
	"fmt"
)

var ErrNilScheduler = errors.New("nil scheduler")

// Reconciler owns the presence map of one display session and the timers that
// drive its deferred transitions. It is not safe for concurrent use: Reconcile and
// every timer callback must run on the same goroutine, which is what the
// Scheduler passed to NewReconciler has to guarantee.
type Reconciler struct {
	cfg   Config
	sched Scheduler

	states PresenceMap
	// Last roster entry seen per key, kept for players held as Leaving.
	last map[string]RosterEntry

	promotions map[string]pendingTimer
	removals   map[string]pendingTimer
	departing  []string

	// Introduction generation; a timer only acts on the introduction that scheduled it.
	gen    uint64
	closed bool
}

type pendingTimer struct {
	gen   uint64
	timer Timer
}

func NewReconciler(sched Scheduler, cfg Config) (*Reconciler, error) {
	if sched == nil {
		return nil, ErrNilScheduler
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Reconciler{
		cfg:        cfg.withDefaults(),
		sched:      sched,
		states:     make(PresenceMap),
		last:       make(map[string]RosterEntry),
		promotions: make(map[string]pendingTimer),
		removals:   make(map[string]pendingTimer),
	}, nil
}

func (r *Reconciler) Config() Config { return r.cfg }

// Reconcile applies one roster snapshot. Keys seen for the first time become
// Entering and get exactly one promotion; keys that disappeared are dropped (or
// held as Leaving) and their pending promotion is cancelled.
func (r *Reconciler) Reconcile(roster Roster) Plan {
	if r.closed {
		panic("broadcast: Reconcile on closed reconciler")
	}
	plan := PlanFor(r.states, roster, PlanOptions{
		PromotionDelay: r.cfg.PromotionDelay,
		HoldLeaving:    r.cfg.LeaveHold > 0,
	})

	for _, key := range plan.Cancel {
		r.cancelPromotion(key)
	}
	for _, key := range plan.Removed {
		r.cancelRemoval(key)
		delete(r.last, key)
	}
	for _, key := range plan.Revived {
		r.cancelRemoval(key)
	}
	for _, p := range plan.Promotions {
		if _, exists := r.states[p.Key]; exists {
			panic(fmt.Sprintf("broadcast: duplicate insert of %q", p.Key))
		}
	}

	r.states = plan.Next
	for _, e := range roster {
		r.last[e.Name] = e.Clone()
	}
	for _, p := range plan.Promotions {
		r.schedulePromotion(p)
	}
	for _, key := range plan.Departed {
		r.scheduleRemoval(key)
	}

	plan.Next = r.states.Clone()
	return plan
}

func (r *Reconciler) schedulePromotion(p Promotion) {
	r.gen++
	gen := r.gen
	key := p.Key
	t := r.sched.Schedule(p.Delay, func() { r.promote(key, gen) })
	r.promotions[key] = pendingTimer{gen: gen, timer: t}
}

func (r *Reconciler) promote(key string, gen uint64) {
	p, ok := r.promotions[key]
	if !ok || p.gen != gen {
		return
	}
	delete(r.promotions, key)
	if r.closed || r.states[key] != Entering {
		return
	}
	r.states[key] = Visible
	r.notify(key, Entering, Visible)
}

func (r *Reconciler) scheduleRemoval(key string) {
	r.gen++
	gen := r.gen
	t := r.sched.Schedule(r.cfg.LeaveHold, func() { r.remove(key, gen) })
	r.removals[key] = pendingTimer{gen: gen, timer: t}
	r.departing = append(r.departing, key)
}

func (r *Reconciler) remove(key string, gen uint64) {
	p, ok := r.removals[key]
	if !ok || p.gen != gen {
		return
	}
	delete(r.removals, key)
	r.dropDeparting(key)
	if r.closed || r.states[key] != Leaving {
		return
	}
	delete(r.states, key)
	delete(r.last, key)
	r.notify(key, Leaving, Removed)
}

func (r *Reconciler) cancelPromotion(key string) {
	if p, ok := r.promotions[key]; ok {
		p.timer.Stop()
		delete(r.promotions, key)
	}
}

func (r *Reconciler) cancelRemoval(key string) {
	if p, ok := r.removals[key]; ok {
		p.timer.Stop()
		delete(r.removals, key)
	}
	r.dropDeparting(key)
}

func (r *Reconciler) dropDeparting(key string) {
	for i, k := range r.departing {
		if k == key {
			r.departing = append(r.departing[:i], r.departing[i+1:]...)
			return
		}
	}
}

func (r *Reconciler) notify(key string, from, to State) {
	if r.cfg.OnTransition != nil {
		r.cfg.OnTransition(key, from, to)
	}
}

// State returns a copy of the presence map.
func (r *Reconciler) State() PresenceMap {
	return r.states.Clone()
}

func (r *Reconciler) StateOf(key string) (State, bool) {
	st, ok := r.states[key]
	return st, ok
}

// Departing returns the last known entries of players held as Leaving, oldest
// departure first.
func (r *Reconciler) Departing() []RosterEntry {
	out := make([]RosterEntry, 0, len(r.departing))
	for _, key := range r.departing {
		if e, ok := r.last[key]; ok {
			out = append(out, e.Clone())
		}
	}
	return out
}

// PendingPromotions is the number of promotions scheduled and not yet fired.
func (r *Reconciler) PendingPromotions() int { return len(r.promotions) }

// PendingRemovals is the number of timed removals not yet fired.
func (r *Reconciler) PendingRemovals() int { return len(r.removals) }

// Close cancels every pending timer and discards the presence map. It is safe to
// call more than once.
func (r *Reconciler) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for key, p := range r.promotions {
		p.timer.Stop()
		delete(r.promotions, key)
	}
	for key, p := range r.removals {
		p.timer.Stop()
		delete(r.removals, key)
	}
	r.departing = nil
	r.states = make(PresenceMap)
	r.last = make(map[string]RosterEntry)
}

func (r *Reconciler) Closed() bool { return r.closed }
