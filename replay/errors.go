package replay

import "fmt"

type ReplayError struct {
	EventIndex int    `json:"event_index"`
	Reason     string `json:"reason"`
	Message    string `json:"message"`
}

func (e *ReplayError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("replay error(event=%d reason=%s): %s", e.EventIndex, e.Reason, e.Message)
}
