package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"holdem-broadcast/apps/overlay/internal/transport"
	"holdem-broadcast/broadcast"
	"holdem-broadcast/card"
)

// Stream is the transport collaborator: it feeds raw messages and connection
// events to the session until ctx is cancelled.
type Stream interface {
	Run(ctx context.Context, h transport.Handler) error
}

// Frame is one published state of the display.
type Frame struct {
	Seq       uint64
	SessionID string
	At        time.Time
	Rows      []broadcast.Row
	Board     card.List
	Connected bool
	// Error is a human-readable transport or payload error; the rows are the last
	// good roster.
	Error string
}

type Options struct {
	Display broadcast.Config
	Debug   bool
	// Now stamps frames (nil => time.Now).
	Now func() time.Time
}

// Event types for the session loop
type EventType int

const (
	EventMessage EventType = iota
	EventConnected
	EventTransportError
	EventTimer
)

type Event struct {
	Type  EventType
	Data  []byte
	Err   error
	timer *loopTimer
}

var ErrSessionClosed = errors.New("session closed")

// Session is one mounted display: it owns the stream subscription, the presence
// state and every live timer. All state changes happen on a single loop
// goroutine, in arrival order.
type Session struct {
	ID string

	stream Stream
	sink   func(Frame)
	opts   Options

	events chan Event
	stop   chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce sync.Once
	closeOnce sync.Once

	// Loop-owned.
	display   *broadcast.Display
	timers    map[*loopTimer]struct{}
	seq       uint64
	lastErr   string
	connected bool

	pendingTimers atomic.Int64

	mu     sync.RWMutex
	latest Frame
}

// New creates a session; nothing runs until Start. sink receives every frame on
// the loop goroutine and must not block.
func New(stream Stream, sink func(Frame), opts Options) (*Session, error) {
	if sink == nil {
		sink = func(Frame) {}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Session{
		ID:     uuid.NewString(),
		stream: stream,
		sink:   sink,
		opts:   opts,
		events: make(chan Event, 256),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		timers: make(map[*loopTimer]struct{}),
	}

	cfg := opts.Display
	userHook := cfg.OnTransition
	cfg.OnTransition = func(key string, from, to broadcast.State) {
		if s.opts.Debug {
			log.Printf("[Session %s] %q %s -> %s", s.ID, key, from, to)
		}
		if userHook != nil {
			userHook(key, from, to)
		}
		s.publish()
	}
	display, err := broadcast.NewDisplay(s, cfg)
	if err != nil {
		return nil, fmt.Errorf("new display: %w", err)
	}
	s.display = display
	s.latest = Frame{SessionID: s.ID, Board: card.List{}}
	return s, nil
}

// Start launches the loop and the stream. Calling it more than once is a no-op.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		select {
		case <-s.stop:
			return
		default:
		}
		ctx, cancel := context.WithCancel(ctx)
		s.cancel = cancel

		s.wg.Add(1)
		go s.run()

		if s.stream != nil {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if err := s.stream.Run(ctx, s); err != nil {
					log.Printf("[Session %s] Stream stopped: %v", s.ID, err)
				}
			}()
		}
		log.Printf("[Session %s] Started", s.ID)
	})
}

// Close cancels every pending timer, closes the stream and waits for the loop and
// stream goroutines to exit. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		close(s.stop)
		s.wg.Wait()
		// Never started: the loop did not run its teardown.
		select {
		case <-s.done:
		default:
			s.teardown()
		}
		log.Printf("[Session %s] Closed", s.ID)
	})
}

func (s *Session) run() {
	defer s.wg.Done()
	for {
		select {
		case ev := <-s.events:
			s.handleEvent(ev)
		case <-s.stop:
			s.teardown()
			return
		}
	}
}

func (s *Session) teardown() {
	s.display.Close()
	if n := len(s.timers); n > 0 {
		log.Printf("[Session %s] %d timers outlived the display; stopping them", s.ID, n)
		for t := range s.timers {
			t.Stop()
		}
	}
	close(s.done)
}

func (s *Session) post(ev Event) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) handleEvent(ev Event) {
	switch ev.Type {
	case EventMessage:
		s.handleMessage(ev.Data)
	case EventConnected:
		s.connected = true
		s.lastErr = ""
		s.publish()
	case EventTransportError:
		s.connected = false
		if ev.Err != nil {
			s.lastErr = ev.Err.Error()
		}
		log.Printf("[Session %s] Transport error: %s", s.ID, s.lastErr)
		s.publish()
	case EventTimer:
		t := ev.timer
		if t.stopped {
			return
		}
		t.stopped = true
		s.forget(t)
		t.fn()
	default:
		log.Printf("[Session %s] Unknown event type: %d", s.ID, ev.Type)
	}
}

func (s *Session) handleMessage(data []byte) {
	snap, plan, err := s.display.Apply(data)
	if err != nil {
		log.Printf("[Session %s] Dropped frame: %v", s.ID, err)
		s.lastErr = err.Error()
		s.publish()
		return
	}
	if s.opts.Debug {
		for _, sk := range snap.Skipped {
			log.Printf("[Session %s] Skipped player=%d card=%d: %s", s.ID, sk.Player, sk.Card, sk.Reason)
		}
		log.Printf("[Session %s] Roster %v: +%d -%d", s.ID, snap.Players.Keys(), len(plan.Promotions), len(plan.Removed)+len(plan.Departed))
	}
	s.lastErr = ""
	s.publish()
}

func (s *Session) publish() {
	view := s.display.View()
	s.seq++
	f := Frame{
		Seq:       s.seq,
		SessionID: s.ID,
		At:        s.opts.Now(),
		Rows:      view.Rows,
		Board:     view.Board,
		Connected: s.connected,
		Error:     s.lastErr,
	}
	s.mu.Lock()
	s.latest = f
	s.mu.Unlock()
	s.sink(f)
}

// Frame returns the most recently published frame.
func (s *Session) Frame() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// PendingTimers is the number of scheduled callbacks that have neither fired nor
// been cancelled.
func (s *Session) PendingTimers() int {
	return int(s.pendingTimers.Load())
}

// HandleConnected implements transport.Handler.
func (s *Session) HandleConnected() {
	s.post(Event{Type: EventConnected})
}

// HandleMessage implements transport.Handler.
func (s *Session) HandleMessage(data []byte) {
	s.post(Event{Type: EventMessage, Data: append([]byte(nil), data...)})
}

// HandleError implements transport.Handler.
func (s *Session) HandleError(err error) {
	s.post(Event{Type: EventTransportError, Err: err})
}
