package broadcast

import "holdem-broadcast/card"

// Row is one player as the display should draw it.
type Row struct {
	Entry RosterEntry
	State State
	// HandDescription names the player's best hand once hole cards and board reach
	// five cards; empty otherwise.
	HandDescription string
}

// Project lists the roster in arrival order with each player's lifecycle state,
// followed by departing players (held as Leaving) in departure order. Players
// missing from m are drawn Visible. Project has no side effects.
func Project(roster Roster, m PresenceMap, departing ...RosterEntry) []Row {
	return ProjectBoard(roster, nil, m, departing...)
}

// ProjectBoard is Project with hand descriptions computed against board.
func ProjectBoard(roster Roster, board card.List, m PresenceMap, departing ...RosterEntry) []Row {
	rows := make([]Row, 0, len(roster)+len(departing))
	listed := make(map[string]bool, len(roster))
	for _, e := range roster {
		st, ok := m[e.Name]
		if !ok {
			st = Visible
		}
		listed[e.Name] = true
		rows = append(rows, newRow(e, st, board))
	}
	for _, e := range departing {
		if listed[e.Name] {
			continue
		}
		st, ok := m[e.Name]
		if !ok || st != Leaving {
			continue
		}
		listed[e.Name] = true
		rows = append(rows, newRow(e, st, board))
	}
	return rows
}

func newRow(e RosterEntry, st State, board card.List) Row {
	row := Row{Entry: e.Clone(), State: st}
	if len(e.Hand) > 0 && len(board) >= 3 {
		all := make(card.List, 0, len(e.Hand)+len(board))
		all = append(all, e.Hand...)
		all = append(all, board...)
		if desc, ok := card.Describe(all); ok {
			row.HandDescription = desc
		}
	}
	return row
}
