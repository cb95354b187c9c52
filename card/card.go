package card

import (
	"fmt"
	"strings"
)

// Card 牌值
//
// 编码规则:
// - 高4位: 花色 (0:Spade, 1:Heart, 2:Club, 3:Diamond)
// - 低4位: 点数 (1:A, 2..9, 10:T, 11:J, 12:Q, 13:K)
type Card byte

const CardInvalid Card = 0

// New builds a card from a suit and a rank in 1..13 (ace = 1).
func New(s Suit, rank byte) Card {
	if s > Diamond || rank < 1 || rank > 13 {
		return CardInvalid
	}
	return Card(byte(s)<<4 | rank)
}

func (c Card) String() string {
	if !c.Valid() {
		return "Invalid"
	}
	return rankShort(c.Rank()) + c.Suit().Letter()
}

func (c Card) Valid() bool {
	r := c.Rank()
	return c != CardInvalid && c.Suit() <= Diamond && r >= 1 && r <= 13
}

// Rank 获取牌面值 1-13 (A=1, K=13)
func (c Card) Rank() byte {
	return byte(c & 0x0F)
}

// Suit 花色 (0:Spades, 1:Hearts, 2:Clubs, 3:Diamonds)
func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

// SuitName returns the stream name of the suit ("spades", "hearts", ...).
func (c Card) SuitName() string {
	return c.Suit().Name()
}

// RankName returns the stream name of the rank ("ace", "2".."10", "jack", ...).
func (c Card) RankName() string {
	switch r := c.Rank(); r {
	case 1:
		return "ace"
	case 11:
		return "jack"
	case 12:
		return "queen"
	case 13:
		return "king"
	default:
		if r >= 2 && r <= 10 {
			return fmt.Sprintf("%d", r)
		}
		return ""
	}
}

func rankShort(r byte) string {
	switch r {
	case 1:
		return "A"
	case 10:
		return "T"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	default:
		return fmt.Sprintf("%d", r)
	}
}

// Parse converts the stream representation of a card ({suit, rank} names as sent by
// the table server) into a Card. Names are matched case-insensitively.
func Parse(suit, rank string) (Card, error) {
	s, err := ParseSuit(suit)
	if err != nil {
		return CardInvalid, err
	}
	r, err := ParseRank(rank)
	if err != nil {
		return CardInvalid, err
	}
	return New(s, r), nil
}

// ParseRank 将点数名称 (如 "ace", "10", "queen") 转换为 1-13
func ParseRank(raw string) (byte, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ace", "a":
		return 1, nil
	case "2":
		return 2, nil
	case "3":
		return 3, nil
	case "4":
		return 4, nil
	case "5":
		return 5, nil
	case "6":
		return 6, nil
	case "7":
		return 7, nil
	case "8":
		return 8, nil
	case "9":
		return 9, nil
	case "10", "t":
		return 10, nil
	case "jack", "j":
		return 11, nil
	case "queen", "q":
		return 12, nil
	case "king", "k":
		return 13, nil
	default:
		return 0, fmt.Errorf("invalid rank: %q", raw)
	}
}
