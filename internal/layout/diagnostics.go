package layout

import (
	"errors"
	"fmt"
)

var (
	ErrMissingDue       = errors.New("task has no due date")
	ErrInvalidDue       = errors.New("task due date is not parseable")
	ErrInvertedInterval = errors.New("event ends before it starts")
	ErrMissingInstant   = errors.New("event has no start or end instant")
	ErrMissingTiming    = errors.New("event has no timing")
)

// Diagnostic records an input that was left out of the layout.
type Diagnostic struct {
	EventID string
	Title   string
	Err     error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s (%q): %v", d.EventID, d.Title, d.Err)
}

// Unwrap makes errors.Is work against a Diagnostic value.
func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Error implements error so a Diagnostic can be logged as one.
func (d Diagnostic) Error() string {
	return d.String()
}
