package broadcast

import (
	"errors"
	"testing"
)

func TestDisplay_MalformedKeepsPreviousRoster(t *testing.T) {
	clock := NewVirtualScheduler(t0)
	disp, err := NewDisplay(clock, Config{})
	if err != nil {
		t.Fatalf("NewDisplay err: %v", err)
	}
	defer disp.Close()

	if _, _, err := disp.Apply([]byte(`{"players": [{"name": "Alice"}], "board": [{"suit": "hearts", "rank": "4"}]}`)); err != nil {
		t.Fatalf("Apply err: %v", err)
	}
	clock.Advance(DefaultPromotionDelay)

	_, _, err = disp.Apply([]byte(`{"players": `))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}

	view := disp.View()
	if len(view.Rows) != 1 || view.Rows[0].Entry.Name != "Alice" || view.Rows[0].State != Visible {
		t.Fatalf("previous roster not retained: %+v", view.Rows)
	}
	if len(view.Board) != 1 {
		t.Fatalf("previous board not retained: %v", view.Board)
	}
}

func TestDisplay_ViewFollowsLifecycle(t *testing.T) {
	clock := NewVirtualScheduler(t0)
	disp, err := NewDisplay(clock, Config{LeaveHold: 300 * DefaultPromotionDelay})
	if err != nil {
		t.Fatalf("NewDisplay err: %v", err)
	}
	defer disp.Close()

	disp.Apply([]byte(`{"players": [{"name": "Alice"}, {"name": "Bob"}]}`))
	if v := disp.View(); v.Rows[0].State != Entering || v.Rows[1].State != Entering {
		t.Fatalf("expected both entering: %+v", v.Rows)
	}
	clock.Advance(DefaultPromotionDelay)

	disp.Apply([]byte(`{"players": [{"name": "Bob"}]}`))
	v := disp.View()
	if len(v.Rows) != 2 || v.Rows[0].Entry.Name != "Bob" || v.Rows[1].Entry.Name != "Alice" || v.Rows[1].State != Leaving {
		t.Fatalf("expected Bob then leaving Alice: %+v", v.Rows)
	}

	disp.Close()
	if clock.Pending() != 0 {
		t.Fatalf("Close left %d timers pending", clock.Pending())
	}
}
