package replay

import (
	"holdem-broadcast/broadcast"
	"holdem-broadcast/card"
)

func toRowsOut(rows []broadcast.Row) []RowOut {
	out := make([]RowOut, 0, len(rows))
	for _, r := range rows {
		out = append(out, RowOut{
			Name:   r.Entry.Name,
			State:  r.State.String(),
			Hand:   cardStrings(r.Entry.Hand),
			Equity: r.Entry.Equity,
			Best:   r.HandDescription,
		})
	}
	return out
}

func cardStrings(cards card.List) []string {
	if len(cards) == 0 {
		return nil
	}
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.String())
	}
	return out
}
