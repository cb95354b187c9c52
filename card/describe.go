package card

import (
	poker "github.com/paulhankin/poker"
)

func toPH(c Card) (poker.Card, error) {
	var s poker.Suit
	switch c.Suit() {
	case Club:
		s = poker.Club
	case Diamond:
		s = poker.Diamond
	case Heart:
		s = poker.Heart
	default:
		s = poker.Spade
	}
	// Both encodings use ace = 1.
	return poker.MakeCard(s, poker.Rank(c.Rank()))
}

// Describe names the best poker hand made from 5 to 7 cards (hole cards plus board).
// It reports false when there are too few or too many cards, a card is invalid, or a
// card appears twice.
func Describe(cards List) (string, bool) {
	if len(cards) < 5 || len(cards) > 7 {
		return "", false
	}
	seen := make(map[Card]bool, len(cards))
	pcs := make([]poker.Card, 0, len(cards))
	for _, c := range cards {
		if !c.Valid() || seen[c] {
			return "", false
		}
		seen[c] = true
		pc, err := toPH(c)
		if err != nil {
			return "", false
		}
		pcs = append(pcs, pc)
	}
	if len(pcs) == 6 {
		pcs = bestFive(pcs)
	}
	desc, err := poker.Describe(pcs)
	if err != nil {
		return "", false
	}
	return desc, true
}

// bestFive picks the strongest 5-card subset of six cards (higher score wins).
func bestFive(pcs []poker.Card) []poker.Card {
	var best [5]poker.Card
	bestScore := int16(-1 << 15)
	for skip := range pcs {
		var five [5]poker.Card
		k := 0
		for i, c := range pcs {
			if i == skip {
				continue
			}
			five[k] = c
			k++
		}
		if score := poker.Eval5(&five); score > bestScore {
			bestScore = score
			best = five
		}
	}
	return best[:]
}
