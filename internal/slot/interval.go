package slot

import (
	"fmt"
	"time"
)

// Interval is a busy time range taken from an existing calendar event.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval returns a busy interval, rejecting ranges that end before they start.
func NewInterval(start, end time.Time) (Interval, error) {
	if end.Before(start) {
		return Interval{}, fmt.Errorf("interval ends before it starts: %s > %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether the half-open ranges [aStart, aEnd) and
// [bStart, bEnd) share any instant. Touching boundaries do not overlap, so a
// slot ending exactly when a busy period starts is free.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !(!aEnd.After(bStart) || !aStart.Before(bEnd))
}

// Blocks reports whether the interval conflicts with [start, end).
func (i Interval) Blocks(start, end time.Time) bool {
	return Overlaps(start, end, i.Start, i.End)
}

// conflicts reports whether any busy interval conflicts with [start, end).
func conflicts(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		if b.Blocks(start, end) {
			return true
		}
	}
	return false
}
