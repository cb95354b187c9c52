package broadcast

import "holdem-broadcast/card"

// RosterEntry is one seated player as reported by a stream message. Name is the
// identity key: two entries are the same player iff their names are equal.
type RosterEntry struct {
	Name   string
	Hand   card.List
	Equity float64
}

func (e RosterEntry) Clone() RosterEntry {
	e.Hand = e.Hand.Clone()
	return e
}

// Roster is a complete snapshot of the table, in the order the server sent it.
type Roster []RosterEntry

func (r Roster) Keys() []string {
	keys := make([]string, 0, len(r))
	for _, e := range r {
		keys = append(keys, e.Name)
	}
	return keys
}

func (r Roster) Clone() Roster {
	if r == nil {
		return nil
	}
	out := make(Roster, len(r))
	for i, e := range r {
		out[i] = e.Clone()
	}
	return out
}

// Skip records an element of a message that Ingest dropped without failing the
// whole update. Index is the player position, Card the card position inside the
// hand (-1 when the whole player was dropped). Board cards use Player = -1.
type Skip struct {
	Player int
	Card   int
	Reason string
}

// Snapshot is one validated stream message.
type Snapshot struct {
	Players Roster
	Board   card.List
	Skipped []Skip
}
