package broadcast

import "holdem-broadcast/card"

// View is what one display session currently shows.
type View struct {
	Rows  []Row
	Board card.List
}

// Display chains Ingest, the Reconciler and the projector for one display session.
// Like the Reconciler it must be driven from a single goroutine.
type Display struct {
	rec    *Reconciler
	roster Roster
	board  card.List
}

func NewDisplay(sched Scheduler, cfg Config) (*Display, error) {
	rec, err := NewReconciler(sched, cfg)
	if err != nil {
		return nil, err
	}
	return &Display{rec: rec, roster: Roster{}, board: card.List{}}, nil
}

// Apply ingests one raw stream message. A malformed payload returns an error
// wrapping ErrMalformed and leaves the roster, board and presence map untouched.
func (d *Display) Apply(raw []byte) (Snapshot, Plan, error) {
	snap, err := Ingest(raw)
	if err != nil {
		return snap, Plan{}, err
	}
	return snap, d.ApplySnapshot(snap), nil
}

func (d *Display) ApplySnapshot(snap Snapshot) Plan {
	plan := d.rec.Reconcile(snap.Players)
	d.roster = snap.Players.Clone()
	d.board = snap.Board.Clone()
	return plan
}

func (d *Display) View() View {
	return View{
		Rows:  ProjectBoard(d.roster, d.board, d.rec.State(), d.rec.Departing()...),
		Board: d.board.Clone(),
	}
}

func (d *Display) Roster() Roster { return d.roster.Clone() }

func (d *Display) Reconciler() *Reconciler { return d.rec }

// Close cancels every pending timer.
func (d *Display) Close() { d.rec.Close() }
