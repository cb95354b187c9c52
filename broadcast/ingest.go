package broadcast

import (
	"math"

	"github.com/tidwall/gjson"

	"holdem-broadcast/card"
)

// Ingest validates one raw stream message. Only an unparsable payload, or one
// without a players array, fails the call; bad players and bad cards are dropped
// and listed in Snapshot.Skipped.
func Ingest(raw []byte) (Snapshot, error) {
	if !gjson.ValidBytes(raw) {
		return Snapshot{}, malformed("invalid json")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return Snapshot{}, malformed("payload is not an object")
	}
	players := doc.Get("players")
	if !players.Exists() || players.Type == gjson.Null {
		return Snapshot{}, malformed("missing players")
	}
	if !players.IsArray() {
		return Snapshot{}, malformed("players is not an array")
	}

	var snap Snapshot
	snap.Players = Roster{}
	seen := make(map[string]bool)
	for i, elem := range players.Array() {
		entry, skips, reason := ingestPlayer(i, elem)
		if reason == "" && seen[entry.Name] {
			reason = "duplicate name"
		}
		if reason != "" {
			snap.Skipped = append(snap.Skipped, Skip{Player: i, Card: -1, Reason: reason})
			continue
		}
		seen[entry.Name] = true
		snap.Skipped = append(snap.Skipped, skips...)
		snap.Players = append(snap.Players, entry)
	}

	board, boardSkipped := ingestCards(-1, doc.Get("board"))
	snap.Board = board
	snap.Skipped = append(snap.Skipped, boardSkipped...)
	return snap, nil
}

func ingestPlayer(i int, elem gjson.Result) (RosterEntry, []Skip, string) {
	if !elem.IsObject() {
		return RosterEntry{}, nil, "player is not an object"
	}
	name := elem.Get("name")
	if name.Type != gjson.String || name.Str == "" {
		return RosterEntry{}, nil, "missing name"
	}
	hand, skips := ingestCards(i, elem.Get("hand"))
	return RosterEntry{
		Name:   name.Str,
		Hand:   hand,
		Equity: coerceEquity(elem.Get("equity")),
	}, skips, ""
}

// ingestCards returns the well-formed cards of a hand or board; anything that is not
// an array yields an empty list.
func ingestCards(player int, v gjson.Result) (card.List, []Skip) {
	out := card.List{}
	if !v.IsArray() {
		return out, nil
	}
	var skips []Skip
	for j, raw := range v.Array() {
		c, reason := ingestCard(raw)
		if reason != "" {
			skips = append(skips, Skip{Player: player, Card: j, Reason: reason})
			continue
		}
		out = append(out, c)
	}
	return out, skips
}

func ingestCard(v gjson.Result) (card.Card, string) {
	if !v.IsObject() {
		return card.CardInvalid, "card is not an object"
	}
	suit, rank := v.Get("suit"), v.Get("rank")
	if suit.Type != gjson.String || suit.Str == "" {
		return card.CardInvalid, "card missing suit"
	}
	var rankStr string
	switch rank.Type {
	case gjson.String:
		rankStr = rank.Str
	case gjson.Number:
		rankStr = rank.Raw
	default:
		return card.CardInvalid, "card missing rank"
	}
	c, err := card.Parse(suit.Str, rankStr)
	if err != nil {
		return card.CardInvalid, err.Error()
	}
	return c, ""
}

func coerceEquity(v gjson.Result) float64 {
	if v.Type != gjson.Number {
		return 0
	}
	f := v.Float()
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
