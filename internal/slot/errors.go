package slot

import (
	"fmt"
	"time"
)

// NotFoundError is the normal negative result: no free slot in the horizon,
// or no appointment at a requested instant.
type NotFoundError struct {
	// What describes the thing that was looked for.
	What string
	// At is the instant the lookup referred to, if any.
	At time.Time
}

func (e *NotFoundError) Error() string {
	if e.At.IsZero() {
		return fmt.Sprintf("no %s found", e.What)
	}
	return fmt.Sprintf("no %s at %s", e.What, e.At.UTC().Format(time.RFC3339))
}

// MalformedSlotError reports a slot string that does not match the canonical
// "X to Y (LABEL)" shape or whose halves are not valid local date-times.
type MalformedSlotError struct {
	Input  string
	Reason string
	Err    error
}

func (e *MalformedSlotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed slot %q: %s: %v", e.Input, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed slot %q: %s", e.Input, e.Reason)
}

func (e *MalformedSlotError) Unwrap() error {
	return e.Err
}
