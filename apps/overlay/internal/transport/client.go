package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
)

// Handler receives everything the client reads. Calls come from the client's Run
// goroutine, one at a time.
type Handler interface {
	HandleConnected()
	HandleMessage(data []byte)
	HandleError(err error)
}

// Client keeps a websocket subscription to the game server alive, reconnecting with
// exponential backoff.
type Client struct {
	URL        string
	Dialer     *websocket.Dialer
	Header     http.Header
	MinBackoff time.Duration
	MaxBackoff time.Duration
	ReadLimit  int64

	// PingInterval between client pings; PongWait is how long the connection may
	// stay silent (no message, no pong) before it is treated as dead. Zero
	// disables either.
	PingInterval time.Duration
	PongWait     time.Duration
}

// ConnError describes a dial or read failure in terms fit for the display.
type ConnError struct {
	URL string
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.URL, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

var (
	ErrClosedByServer = errors.New("closed by server")
	ErrStalled        = errors.New("connection stalled")
)

func New(url string, minBackoff, maxBackoff time.Duration) *Client {
	return &Client{
		URL:        url,
		Dialer:     websocket.DefaultDialer,
		MinBackoff: minBackoff,
		MaxBackoff: maxBackoff,
		ReadLimit:  1 << 20,

		PingInterval: 30 * time.Second,
		PongWait:     60 * time.Second,
	}
}

// Run connects and reads until ctx is cancelled. Every failed dial or dropped
// connection is reported to h before the next attempt. Cancelling ctx closes the
// socket and Run returns nil.
func (c *Client) Run(ctx context.Context, h Handler) error {
	b := backoff.NewExponentialBackOff()
	if c.MinBackoff > 0 {
		b.InitialInterval = c.MinBackoff
	}
	if c.MaxBackoff > 0 {
		b.MaxInterval = c.MaxBackoff
	}
	b.Reset()

	for {
		connected, err := c.runOnce(ctx, h)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			b.Reset()
		}
		h.HandleError(&ConnError{URL: c.URL, Err: err})

		wait := b.NextBackOff()
		log.Printf("[Transport] %v; retrying in %s", err, wait)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (c *Client) runOnce(ctx context.Context, h Handler) (bool, error) {
	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, c.URL, c.Header)
	if err != nil {
		return false, err
	}
	log.Printf("[Transport] Connected to %s", c.URL)
	h.HandleConnected()

	stop := make(chan struct{})
	defer close(stop)
	go c.pingLoop(ctx, conn, stop)
	defer conn.Close()

	if c.ReadLimit > 0 {
		conn.SetReadLimit(c.ReadLimit)
	}
	extend := func() {
		if c.PongWait > 0 {
			conn.SetReadDeadline(time.Now().Add(c.PongWait))
		}
	}
	extend()
	conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, ErrClosedByServer
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return true, fmt.Errorf("%w: nothing received for %s", ErrStalled, c.PongWait)
			}
			return true, err
		}
		extend()
		if messageType == websocket.TextMessage || messageType == websocket.BinaryMessage {
			h.HandleMessage(message)
		}
	}
}

// pingLoop pings the server until the connection is done, and closes the socket
// when ctx is cancelled.
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	var tick <-chan time.Time
	if c.PingInterval > 0 {
		ticker := time.NewTicker(c.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
			return
		case <-stop:
			return
		case <-tick:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				// The read loop reports the broken connection.
				tick = nil
			}
		}
	}
}
