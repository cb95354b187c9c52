package replay

import "encoding/json"

const TapeVersion = 1

// Tape is a recorded broadcast stream: every message with its arrival offset.
type Tape struct {
	TapeVersion int         `json:"tape_version"`
	TableID     string      `json:"table_id,omitempty"`
	Events      []TapeEvent `json:"events"`
}

// TapeEvent is one stream message. Message holds the payload as JSON; Raw holds
// it verbatim when the recorded frame was not valid JSON.
type TapeEvent struct {
	AtMs    int64           `json:"at_ms"`
	Message json.RawMessage `json:"message,omitempty"`
	Raw     string          `json:"raw,omitempty"`
}

func (e TapeEvent) payload() []byte {
	if len(e.Message) > 0 {
		return e.Message
	}
	return []byte(e.Raw)
}

// Trigger says what produced a Step.
type Trigger string

const (
	TriggerMessage   Trigger = "message"
	TriggerMalformed Trigger = "malformed"
	TriggerPromotion Trigger = "promotion"
	TriggerRemoval   Trigger = "removal"
)

// Step is the display after one message or one deferred transition.
type Step struct {
	AtMs    int64    `json:"at_ms"`
	Trigger Trigger  `json:"trigger"`
	Event   int      `json:"event"`
	Key     string   `json:"key,omitempty"`
	Error   string   `json:"error,omitempty"`
	Skipped int      `json:"skipped,omitempty"`
	Rows    []RowOut `json:"rows"`
	Board   []string `json:"board,omitempty"`
}

type RowOut struct {
	Name   string   `json:"name"`
	State  string   `json:"state"`
	Hand   []string `json:"hand,omitempty"`
	Equity float64  `json:"equity"`
	Best   string   `json:"best,omitempty"`
}

type Timeline struct {
	TableID string `json:"table_id,omitempty"`
	Steps   []Step `json:"steps"`
}
