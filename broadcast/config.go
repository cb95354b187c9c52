package broadcast

import (
	"fmt"
	"time"
)

// DefaultPromotionDelay is long enough for the entering frame to be painted before
// the enter transition starts, and short enough not to read as a delay.
const DefaultPromotionDelay = 100 * time.Millisecond

type Config struct {
	// PromotionDelay between Entering and Visible (0 => DefaultPromotionDelay).
	PromotionDelay time.Duration

	// LeaveHold keeps a departed player on screen as Leaving for this long before
	// removing it. 0 removes departed players in the same pass.
	LeaveHold time.Duration

	// Optional: called after every deferred transition (promotion or timed removal).
	// A timed removal reports to == Removed.
	OnTransition func(key string, from, to State)
}

func (c Config) validate() error {
	if c.PromotionDelay < 0 {
		return fmt.Errorf("PromotionDelay must be >= 0")
	}
	if c.LeaveHold < 0 {
		return fmt.Errorf("LeaveHold must be >= 0")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.PromotionDelay == 0 {
		c.PromotionDelay = DefaultPromotionDelay
	}
	return c
}
