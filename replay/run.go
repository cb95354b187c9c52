package replay

import (
	"errors"
	"time"

	"holdem-broadcast/broadcast"
)

var epoch = time.Unix(0, 0).UTC()

// Run plays a tape through a fresh display session on a virtual clock and records
// the display after every message and every deferred transition. After the last
// message the clock keeps running until no transition is pending.
func Run(tape *Tape, cfg broadcast.Config) (*Timeline, error) {
	nt, err := normalizeTape(tape)
	if err != nil {
		return nil, err
	}

	clock := broadcast.NewVirtualScheduler(epoch)
	tl := &Timeline{TableID: nt.TableID}
	current := -1

	var disp *broadcast.Display
	userHook := cfg.OnTransition
	cfg.OnTransition = func(key string, from, to broadcast.State) {
		trigger := TriggerPromotion
		if to == broadcast.Removed {
			trigger = TriggerRemoval
		}
		tl.Steps = append(tl.Steps, capture(clock, disp, current, trigger, key))
		if userHook != nil {
			userHook(key, from, to)
		}
	}
	disp, err = broadcast.NewDisplay(clock, cfg)
	if err != nil {
		return nil, &ReplayError{EventIndex: -1, Reason: "display_init_failed", Message: err.Error()}
	}
	defer disp.Close()

	for i, e := range nt.Events {
		clock.AdvanceTo(epoch.Add(time.Duration(e.AtMs) * time.Millisecond))
		current = i
		snap, _, err := disp.Apply(e.payload())
		if err != nil {
			if !errors.Is(err, broadcast.ErrMalformed) {
				return nil, &ReplayError{EventIndex: i, Reason: "apply_failed", Message: err.Error()}
			}
			step := capture(clock, disp, i, TriggerMalformed, "")
			step.Error = err.Error()
			tl.Steps = append(tl.Steps, step)
			continue
		}
		step := capture(clock, disp, i, TriggerMessage, "")
		step.Skipped = len(snap.Skipped)
		tl.Steps = append(tl.Steps, step)
	}

	rc := disp.Reconciler().Config()
	for disp.Reconciler().PendingPromotions() > 0 || disp.Reconciler().PendingRemovals() > 0 {
		clock.Advance(rc.PromotionDelay + rc.LeaveHold)
	}
	return tl, nil
}

func capture(clock *broadcast.VirtualScheduler, disp *broadcast.Display, event int, trigger Trigger, key string) Step {
	view := disp.View()
	return Step{
		AtMs:    clock.Now().Sub(epoch).Milliseconds(),
		Trigger: trigger,
		Event:   event,
		Key:     key,
		Rows:    toRowsOut(view.Rows),
		Board:   cardStrings(view.Board),
	}
}
