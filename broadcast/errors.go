package broadcast

import "errors"

// ErrMalformed marks a payload that cannot be used at all. Callers keep the previous
// roster when they see it.
var ErrMalformed = errors.New("malformed snapshot")

type IngestError struct {
	Reason string
}

func (e *IngestError) Error() string {
	if e == nil {
		return ""
	}
	return "malformed snapshot: " + e.Reason
}

func (e *IngestError) Unwrap() error { return ErrMalformed }

func malformed(reason string) error { return &IngestError{Reason: reason} }
