package codec

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"holdem-broadcast/apps/overlay/internal/session"
	"holdem-broadcast/broadcast"
	"holdem-broadcast/card"
)

// FrameWire is the overlay's outbound message. Players and board use the same card
// shape as the game server's stream.
type FrameWire struct {
	Seq       uint64       `json:"seq"`
	SessionID string       `json:"sessionId"`
	AtMs      int64        `json:"atMs"`
	Connected bool         `json:"connected"`
	Error     string       `json:"error,omitempty"`
	Players   []PlayerWire `json:"players"`
	Board     []CardWire   `json:"board"`
}

type PlayerWire struct {
	Name            string     `json:"name"`
	State           string     `json:"state"`
	Hand            []CardWire `json:"hand"`
	Equity          float64    `json:"equity"`
	PhotoURL        string     `json:"photoUrl,omitempty"`
	HandDescription string     `json:"handDescription,omitempty"`
}

type CardWire struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// Encoder converts session frames to wire form.
type Encoder struct {
	// PhotoURL template; "{name}" is replaced by the player name escaped as a URL
	// component (spaces become %20, reserved characters are percent-encoded).
	PhotoURL string
}

func (e Encoder) ToWire(f session.Frame) FrameWire {
	w := FrameWire{
		Seq:       f.Seq,
		SessionID: f.SessionID,
		Connected: f.Connected,
		Error:     f.Error,
		Players:   make([]PlayerWire, 0, len(f.Rows)),
		Board:     cardsToWire(f.Board),
	}
	if !f.At.IsZero() {
		w.AtMs = f.At.UnixMilli()
	}
	for _, r := range f.Rows {
		w.Players = append(w.Players, e.rowToWire(r))
	}
	return w
}

func (e Encoder) rowToWire(r broadcast.Row) PlayerWire {
	return PlayerWire{
		Name:            r.Entry.Name,
		State:           r.State.String(),
		Hand:            cardsToWire(r.Entry.Hand),
		Equity:          r.Entry.Equity,
		PhotoURL:        e.photoURL(r.Entry.Name),
		HandDescription: r.HandDescription,
	}
}

func (e Encoder) photoURL(name string) string {
	if e.PhotoURL == "" {
		return ""
	}
	return strings.ReplaceAll(e.PhotoURL, "{name}", escapeComponent(name))
}

func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func cardsToWire(cards card.List) []CardWire {
	out := make([]CardWire, 0, len(cards))
	for _, c := range cards {
		out = append(out, CardWire{Suit: c.SuitName(), Rank: c.RankName()})
	}
	return out
}

func (e Encoder) EncodeJSON(f session.Frame) ([]byte, error) {
	b, err := json.Marshal(e.ToWire(f))
	if err != nil {
		return nil, fmt.Errorf("json.Marshal(frame %d): %w", f.Seq, err)
	}
	return b, nil
}

// EncodeProto renders the frame as a protobuf google.protobuf.Struct with the
// same field names as the JSON form.
func (e Encoder) EncodeProto(f session.Frame) ([]byte, error) {
	b, err := e.EncodeJSON(f)
	if err != nil {
		return nil, err
	}
	var st structpb.Struct
	if err := protojson.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("protojson.Unmarshal(frame %d): %w", f.Seq, err)
	}
	out, err := proto.Marshal(&st)
	if err != nil {
		return nil, fmt.Errorf("proto.Marshal(frame %d): %w", f.Seq, err)
	}
	return out, nil
}

// DecodeProto is the inverse of EncodeProto.
func DecodeProto(data []byte) (FrameWire, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return FrameWire{}, fmt.Errorf("proto.Unmarshal: %w", err)
	}
	b, err := protojson.Marshal(&st)
	if err != nil {
		return FrameWire{}, fmt.Errorf("protojson.Marshal: %w", err)
	}
	var w FrameWire
	if err := json.Unmarshal(b, &w); err != nil {
		return FrameWire{}, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return w, nil
}
