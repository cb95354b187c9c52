package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"holdem-broadcast/apps/overlay/internal/codec"
	"holdem-broadcast/apps/overlay/internal/session"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // overlay pages are served from OBS browser sources
	},
}

type format int

const (
	formatJSON format = iota
	formatProto
)

type subscriber struct {
	id     uint64
	format format
	send   chan []byte
}

// Gateway fans display frames out to overlay pages over SSE and websocket.
type Gateway struct {
	enc codec.Encoder

	mu         sync.RWMutex
	subs       map[uint64]*subscriber
	nextSubID  uint64
	latest     session.Frame
	hasLatest  bool
	latestJSON []byte
	closed     bool
}

func New(enc codec.Encoder) *Gateway {
	return &Gateway{
		enc:  enc,
		subs: make(map[uint64]*subscriber),
	}
}

// Router returns the HTTP surface.
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/frame", g.handleFrame)
	r.Get("/events", g.handleEvents)
	r.Get("/ws", g.handleWebSocket)
	return r
}

// Publish is the session sink. It never blocks: subscribers whose buffer is full
// miss the frame and catch up on the next one.
func (g *Gateway) Publish(f session.Frame) {
	js, err := g.enc.EncodeJSON(f)
	if err != nil {
		log.Printf("[Gateway] Encode frame %d: %v", f.Seq, err)
		return
	}
	var pb []byte

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.latest = f
	g.hasLatest = true
	g.latestJSON = js
	for _, s := range g.subs {
		data := js
		if s.format == formatProto {
			if pb == nil {
				if pb, err = g.enc.EncodeProto(f); err != nil {
					log.Printf("[Gateway] Encode proto frame %d: %v", f.Seq, err)
					continue
				}
			}
			data = pb
		}
		select {
		case s.send <- data:
		default:
			// Drop if buffer full
		}
	}
}

// Latest returns the last published frame.
func (g *Gateway) Latest() (session.Frame, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.latest, g.hasLatest
}

func (g *Gateway) Subscribers() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.subs)
}

// Close ends every subscription. Long-lived SSE and websocket handlers return so
// http.Server.Shutdown can complete.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	for id, s := range g.subs {
		close(s.send)
		delete(g.subs, id)
	}
}

// subscribe registers a subscriber primed with the latest frame.
func (g *Gateway) subscribe(f format) (*subscriber, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, fmt.Errorf("gateway closed")
	}
	g.nextSubID++
	s := &subscriber{id: g.nextSubID, format: f, send: make(chan []byte, sendBuffer)}
	if g.hasLatest {
		data := g.latestJSON
		if f == formatProto {
			var err error
			if data, err = g.enc.EncodeProto(g.latest); err != nil {
				return nil, err
			}
		}
		s.send <- data
	}
	g.subs[s.id] = s
	log.Printf("[Gateway] Subscriber %d added, total: %d", s.id, len(g.subs))
	return s, nil
}

func (g *Gateway) unsubscribe(s *subscriber) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.subs[s.id]; !ok {
		return
	}
	delete(g.subs, s.id)
	close(s.send)
	log.Printf("[Gateway] Subscriber %d removed, total: %d", s.id, len(g.subs))
}

func (g *Gateway) handleFrame(w http.ResponseWriter, r *http.Request) {
	g.mu.RLock()
	data, ok := g.latestJSON, g.hasLatest
	g.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if !ok {
		// Nothing received yet: an empty display.
		json.NewEncoder(w).Encode(codec.FrameWire{Players: []codec.PlayerWire{}, Board: []codec.CardWire{}})
		return
	}
	w.Write(data)
}

func (g *Gateway) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	sub, err := g.subscribe(formatJSON)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer g.unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-sub.send:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: frame\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	f := formatJSON
	if r.URL.Query().Get("format") == "proto" {
		f = formatProto
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}
	sub, err := g.subscribe(f)
	if err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go g.readPump(conn, sub)
	go writePump(conn, sub)
}

// readPump discards client input and keeps the read deadline alive on pongs.
func (g *Gateway) readPump(conn *websocket.Conn, sub *subscriber) {
	defer func() {
		g.unsubscribe(sub)
		conn.Close()
	}()

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	msgType := websocket.TextMessage
	if sub.format == formatProto {
		msgType = websocket.BinaryMessage
	}
	for {
		select {
		case message, ok := <-sub.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(msgType, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
