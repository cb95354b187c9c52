package replay

import "fmt"

const defaultTableID = "replay_local"

func normalizeTape(tape *Tape) (*Tape, error) {
	if tape == nil {
		return nil, &ReplayError{EventIndex: -1, Reason: "invalid_tape", Message: "nil tape"}
	}
	if tape.TapeVersion != 0 && tape.TapeVersion != TapeVersion {
		return nil, &ReplayError{
			EventIndex: -1,
			Reason:     "unsupported_version",
			Message:    fmt.Sprintf("tape_version %d is not supported", tape.TapeVersion),
		}
	}
	out := &Tape{TapeVersion: TapeVersion, TableID: tape.TableID, Events: tape.Events}
	if out.TableID == "" {
		out.TableID = defaultTableID
	}
	var last int64
	for i, e := range out.Events {
		if e.AtMs < 0 {
			return nil, &ReplayError{EventIndex: i, Reason: "invalid_time", Message: "at_ms must be >= 0"}
		}
		if e.AtMs < last {
			return nil, &ReplayError{EventIndex: i, Reason: "out_of_order", Message: fmt.Sprintf("at_ms %d before %d", e.AtMs, last)}
		}
		last = e.AtMs
		if len(e.Message) == 0 && e.Raw == "" {
			return nil, &ReplayError{EventIndex: i, Reason: "empty_event", Message: "event has neither message nor raw"}
		}
	}
	return out, nil
}
