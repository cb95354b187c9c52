package broadcast

import (
	"fmt"
	"time"
)

// State is the lifecycle of one player on screen.
type State byte

const (
	// Removed is only reported by Config.OnTransition; it never appears in a PresenceMap.
	Removed State = iota
	Entering
	Visible
	Leaving
)

var StateDictionary = map[State]string{
	Removed:  "removed",
	Entering: "entering",
	Visible:  "visible",
	Leaving:  "leaving",
}

func (s State) String() string {
	if name, ok := StateDictionary[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", byte(s))
}

// PresenceMap maps a player name to its lifecycle state.
type PresenceMap map[string]State

func (m PresenceMap) Clone() PresenceMap {
	out := make(PresenceMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Promotion asks for Key to move from Entering to Visible after Delay.
type Promotion struct {
	Key   string
	Delay time.Duration
}

type PlanOptions struct {
	PromotionDelay time.Duration
	// HoldLeaving keeps departed keys in the map as Leaving instead of dropping them.
	HoldLeaving bool
}

// Plan is the outcome of one reconciliation pass, computed without side effects.
type Plan struct {
	Next       PresenceMap
	Promotions []Promotion
	// Cancel lists keys whose pending promotion must be cancelled.
	Cancel []string
	// Removed keys left the map in this pass.
	Removed []string
	// Departed keys moved to Leaving in this pass (HoldLeaving only).
	Departed []string
	// Revived keys were Leaving and are back in the roster.
	Revived []string
}

// Empty reports whether the pass changed nothing.
func (p Plan) Empty() bool {
	return len(p.Promotions) == 0 && len(p.Removed) == 0 && len(p.Departed) == 0 && len(p.Revived) == 0
}

// PlanFor derives the next presence map from the previous one and a new roster.
// New keys enter with one promotion each, keys still present keep their state,
// keys no longer present are dropped (or held as Leaving) and lose any pending
// promotion. Output slices follow roster order for new keys and sorted previous
// keys for departures, so plans are deterministic.
func PlanFor(prev PresenceMap, roster Roster, opts PlanOptions) Plan {
	plan := Plan{Next: make(PresenceMap, len(roster))}
	current := make(map[string]bool, len(roster))
	for _, e := range roster {
		if current[e.Name] {
			continue
		}
		current[e.Name] = true
		st, ok := prev[e.Name]
		switch {
		case !ok:
			plan.Next[e.Name] = Entering
			plan.Promotions = append(plan.Promotions, Promotion{Key: e.Name, Delay: opts.PromotionDelay})
		case st == Leaving:
			plan.Next[e.Name] = Visible
			plan.Revived = append(plan.Revived, e.Name)
		default:
			plan.Next[e.Name] = st
		}
	}

	for _, key := range sortedKeys(prev) {
		if current[key] {
			continue
		}
		st := prev[key]
		if st != Leaving {
			plan.Cancel = append(plan.Cancel, key)
		}
		if !opts.HoldLeaving {
			plan.Removed = append(plan.Removed, key)
			continue
		}
		plan.Next[key] = Leaving
		if st != Leaving {
			plan.Departed = append(plan.Departed, key)
		}
	}
	return plan
}
