package booking

import (
	"errors"
	"fmt"

	"github.com/teemow/slotbook/internal/slot"
)

// Operations reported in OpError.
const (
	OpScan     = "scan"
	OpBook     = "book"
	OpCancel   = "cancel"
	OpUpcoming = "upcoming"
)

// spanAttrEventID carries the affected event id on booking span events.
const spanAttrEventID = "calendar.event_id"

// OpError wraps every Scheduler failure with the operation that produced it.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// BookingError reports a booking the calendar rejected or confirmed without
// the expected links. EventID is set when the event was created anyway.
type BookingError struct {
	Reason  string
	EventID string
	Err     error
}

func (e *BookingError) Error() string {
	msg := "booking failed: " + e.Reason
	if e.EventID != "" {
		msg += fmt.Sprintf(" (event %s)", e.EventID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

// InvalidArgumentError reports a request field outside its domain.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsNotFound reports whether err carries a *slot.NotFoundError.
func IsNotFound(err error) bool {
	var nf *slot.NotFoundError
	return errors.As(err, &nf)
}

// IsMalformedSlot reports whether err was caused by an unparseable slot string.
func IsMalformedSlot(err error) bool {
	var malformed *slot.MalformedSlotError
	return errors.As(err, &malformed)
}
