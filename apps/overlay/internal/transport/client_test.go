package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type recordingHandler struct {
	connected chan struct{}
	messages  chan string
	errs      chan error
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		connected: make(chan struct{}, 16),
		messages:  make(chan string, 16),
		errs:      make(chan error, 16),
	}
}

func (h *recordingHandler) HandleConnected()          { h.connected <- struct{}{} }
func (h *recordingHandler) HandleMessage(data []byte) { h.messages <- string(data) }
func (h *recordingHandler) HandleError(err error)     { h.errs <- err }

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func TestClient_ReconnectsAfterServerDrop(t *testing.T) {
	var upgrader websocket.Upgrader
	var accepted atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := accepted.Add(1)
		conn.WriteMessage(websocket.TextMessage, []byte(`{"players":[],"n":`+string(rune('0'+n))+`}`))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
		conn.Close()
	}))
	defer server.Close()

	client := New(wsURL(server), 10*time.Millisecond, 20*time.Millisecond)
	h := newRecordingHandler()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx, h) }()

	waitFor(t, h.connected, "first connect")
	if got := waitFor(t, h.messages, "first message"); !strings.Contains(got, `"n":1`) {
		t.Fatalf("unexpected first message %q", got)
	}
	err := waitFor(t, h.errs, "drop error")
	var connErr *ConnError
	if !errors.As(err, &connErr) || connErr.URL != wsURL(server) {
		t.Fatalf("expected ConnError, got %v", err)
	}
	if !errors.Is(err, ErrClosedByServer) {
		t.Fatalf("expected ErrClosedByServer, got %v", err)
	}

	waitFor(t, h.connected, "reconnect")
	if got := waitFor(t, h.messages, "second message"); !strings.Contains(got, `"n":2`) {
		t.Fatalf("unexpected second message %q", got)
	}

	cancel()
	if err := waitFor(t, done, "Run to return"); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestClient_DialFailureIsReported(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(server)
	server.Close()

	client := New(url, 10*time.Millisecond, 10*time.Millisecond)
	h := newRecordingHandler()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx, h) }()

	err := waitFor(t, h.errs, "dial error")
	if !strings.Contains(err.Error(), url) {
		t.Fatalf("error should mention the server url: %v", err)
	}
	waitFor(t, h.errs, "second dial error")

	cancel()
	if err := waitFor(t, done, "Run to return"); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	select {
	case <-h.connected:
		t.Fatalf("should never connect")
	default:
	}
}

func TestClient_CancelClosesLiveConnection(t *testing.T) {
	var upgrader websocket.Upgrader
	closed := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(closed)
				return
			}
		}
	}))
	defer server.Close()

	client := New(wsURL(server), 10*time.Millisecond, 10*time.Millisecond)
	h := newRecordingHandler()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx, h) }()

	waitFor(t, h.connected, "connect")
	cancel()
	waitFor(t, done, "Run to return")
	waitFor(t, closed, "server to observe close")
}

func TestClient_SilentConnectionIsReportedStalled(t *testing.T) {
	var upgrader websocket.Upgrader
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Never reads, so pings go unanswered.
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := New(wsURL(server), time.Second, time.Second)
	client.PingInterval = 20 * time.Millisecond
	client.PongWait = 100 * time.Millisecond
	h := newRecordingHandler()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx, h) }()

	waitFor(t, h.connected, "connect")
	err := waitFor(t, h.errs, "stall error")
	if !errors.Is(err, ErrStalled) {
		t.Fatalf("expected ErrStalled, got %v", err)
	}
	if !strings.Contains(err.Error(), wsURL(server)) {
		t.Fatalf("error should mention the server url: %v", err)
	}

	cancel()
	if err := waitFor(t, done, "Run to return"); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestClient_PongsKeepIdleConnectionAlive(t *testing.T) {
	var upgrader websocket.Upgrader
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Reading answers pings with pongs.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client := New(wsURL(server), time.Second, time.Second)
	client.PingInterval = 20 * time.Millisecond
	client.PongWait = 100 * time.Millisecond
	h := newRecordingHandler()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx, h) }()

	waitFor(t, h.connected, "connect")
	select {
	case err := <-h.errs:
		t.Fatalf("idle but answering connection was dropped: %v", err)
	case <-time.After(400 * time.Millisecond):
	}

	cancel()
	if err := waitFor(t, done, "Run to return"); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}
