package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"holdem-broadcast/apps/overlay/internal/transport"
	"holdem-broadcast/broadcast"
)

// fakeStream hands its handler to the test and blocks until cancelled.
type fakeStream struct {
	handlers  chan transport.Handler
	cancelled chan struct{}
}

func newFakeStream() *fakeStream {
	return &fakeStream{handlers: make(chan transport.Handler, 1), cancelled: make(chan struct{})}
}

func (f *fakeStream) Run(ctx context.Context, h transport.Handler) error {
	f.handlers <- h
	<-ctx.Done()
	close(f.cancelled)
	return nil
}

type harness struct {
	sess   *Session
	stream *fakeStream
	h      transport.Handler
	frames chan Frame
}

func newHarness(t *testing.T, cfg broadcast.Config) *harness {
	t.Helper()
	frames := make(chan Frame, 64)
	stream := newFakeStream()
	sess, err := New(stream, func(f Frame) { frames <- f }, Options{Display: cfg})
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	sess.Start(context.Background())
	t.Cleanup(sess.Close)

	var h transport.Handler
	select {
	case h = <-stream.handlers:
	case <-time.After(2 * time.Second):
		t.Fatalf("stream never started")
	}
	return &harness{sess: sess, stream: stream, h: h, frames: frames}
}

func (hs *harness) next(t *testing.T) Frame {
	t.Helper()
	select {
	case f := <-hs.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for frame")
	}
	return Frame{}
}

func states(f Frame) map[string]broadcast.State {
	out := make(map[string]broadcast.State, len(f.Rows))
	for _, r := range f.Rows {
		out[r.Entry.Name] = r.State
	}
	return out
}

func TestSession_PromotesAfterDelay(t *testing.T) {
	hs := newHarness(t, broadcast.Config{PromotionDelay: 20 * time.Millisecond})

	hs.h.HandleConnected()
	if f := hs.next(t); !f.Connected || f.Error != "" {
		t.Fatalf("unexpected connect frame %+v", f)
	}

	hs.h.HandleMessage([]byte(`{"players": [{"name": "Alice", "equity": 0.5}]}`))
	f := hs.next(t)
	if got := states(f); got["Alice"] != broadcast.Entering {
		t.Fatalf("expected Alice entering, got %v", got)
	}
	if f.SessionID != hs.sess.ID || f.Seq != 2 {
		t.Fatalf("unexpected frame header %+v", f)
	}

	f = hs.next(t)
	if got := states(f); got["Alice"] != broadcast.Visible {
		t.Fatalf("expected Alice visible, got %v", got)
	}
	if hs.sess.PendingTimers() != 0 {
		t.Fatalf("expected no pending timers, got %d", hs.sess.PendingTimers())
	}
	if latest := hs.sess.Frame(); latest.Seq != f.Seq {
		t.Fatalf("Frame() seq %d, want %d", latest.Seq, f.Seq)
	}
}

func TestSession_MalformedFrameKeepsRoster(t *testing.T) {
	hs := newHarness(t, broadcast.Config{PromotionDelay: time.Hour})

	hs.h.HandleMessage([]byte(`{"players": [{"name": "Alice"}]}`))
	hs.next(t)

	hs.h.HandleMessage([]byte(`not json`))
	f := hs.next(t)
	if f.Error == "" {
		t.Fatalf("expected error on malformed frame")
	}
	if got := states(f); len(got) != 1 || got["Alice"] != broadcast.Entering {
		t.Fatalf("roster should be retained, got %v", got)
	}

	hs.h.HandleMessage([]byte(`{"players": [{"name": "Alice"}, {"name": "Bob"}]}`))
	f = hs.next(t)
	if f.Error != "" || len(f.Rows) != 2 {
		t.Fatalf("good frame should clear error: %+v", f)
	}
}

func TestSession_TransportErrorRetainsRoster(t *testing.T) {
	hs := newHarness(t, broadcast.Config{PromotionDelay: time.Hour})

	hs.h.HandleConnected()
	hs.next(t)
	hs.h.HandleMessage([]byte(`{"players": [{"name": "Alice"}]}`))
	hs.next(t)

	hs.h.HandleError(&transport.ConnError{URL: "ws://table/ws", Err: errors.New("connection reset")})
	f := hs.next(t)
	if f.Connected || !strings.Contains(f.Error, "ws://table/ws") {
		t.Fatalf("unexpected error frame %+v", f)
	}
	if len(f.Rows) != 1 {
		t.Fatalf("roster should be retained: %+v", f.Rows)
	}

	hs.h.HandleConnected()
	if f := hs.next(t); !f.Connected || f.Error != "" {
		t.Fatalf("reconnect should clear error: %+v", f)
	}
}

func TestSession_DepartureCancelsPromotion(t *testing.T) {
	hs := newHarness(t, broadcast.Config{PromotionDelay: time.Hour})

	hs.h.HandleMessage([]byte(`{"players": [{"name": "Alice"}, {"name": "Bob"}]}`))
	hs.next(t)
	if hs.sess.PendingTimers() != 2 {
		t.Fatalf("expected 2 pending timers, got %d", hs.sess.PendingTimers())
	}

	hs.h.HandleMessage([]byte(`{"players": [{"name": "Bob"}]}`))
	hs.next(t)
	if hs.sess.PendingTimers() != 1 {
		t.Fatalf("expected Alice's timer cancelled, got %d pending", hs.sess.PendingTimers())
	}
}

func TestSession_CloseCancelsTimersAndStream(t *testing.T) {
	hs := newHarness(t, broadcast.Config{PromotionDelay: time.Hour, LeaveHold: time.Hour})

	hs.h.HandleMessage([]byte(`{"players": [{"name": "Alice"}, {"name": "Bob"}]}`))
	hs.next(t)
	if hs.sess.PendingTimers() == 0 {
		t.Fatalf("expected pending timers before Close")
	}

	hs.sess.Close()
	hs.sess.Close()

	if hs.sess.PendingTimers() != 0 {
		t.Fatalf("Close left %d timers", hs.sess.PendingTimers())
	}
	select {
	case <-hs.stream.cancelled:
	default:
		t.Fatalf("Close should cancel the stream")
	}

	// Late transport callbacks are dropped without blocking.
	hs.h.HandleMessage([]byte(`{"players": []}`))
	select {
	case f := <-hs.frames:
		t.Fatalf("unexpected frame after Close: %+v", f)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSession_CloseWithoutStart(t *testing.T) {
	sess, err := New(nil, nil, Options{})
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	sess.Close()
	sess.Start(context.Background())
	if sess.PendingTimers() != 0 {
		t.Fatalf("unexpected pending timers")
	}
}

func TestNew_RejectsBadDisplayConfig(t *testing.T) {
	if _, err := New(nil, nil, Options{Display: broadcast.Config{LeaveHold: -time.Second}}); err == nil {
		t.Fatalf("expected error")
	}
}
