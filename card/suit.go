package card

import (
	"fmt"
	"strings"
)

type Suit byte

const (
	Spade Suit = iota // ♠️
	Heart             // ♥️
	Club              // ♣️
	Diamond           // ♦️
)

func (s Suit) String() string {
	switch s {
	case Diamond:
		return "♦️"
	case Club:
		return "♣️"
	case Heart:
		return "♥️"
	case Spade:
		return "♠️"
	}
	return "?"
}

// Name is the suit as it appears on the stream.
func (s Suit) Name() string {
	switch s {
	case Spade:
		return "spades"
	case Heart:
		return "hearts"
	case Club:
		return "clubs"
	case Diamond:
		return "diamonds"
	}
	return ""
}

func (s Suit) Letter() string {
	switch s {
	case Spade:
		return "s"
	case Heart:
		return "h"
	case Club:
		return "c"
	case Diamond:
		return "d"
	}
	return "?"
}

func ParseSuit(raw string) (Suit, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "spades", "spade", "s":
		return Spade, nil
	case "hearts", "heart", "h":
		return Heart, nil
	case "clubs", "club", "c":
		return Club, nil
	case "diamonds", "diamond", "d":
		return Diamond, nil
	default:
		return 0, fmt.Errorf("invalid suit: %q", raw)
	}
}
