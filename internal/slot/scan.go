package slot

import "time"

const (
	// Duration is the length of every bookable slot.
	Duration = 30 * time.Minute

	// HorizonSteps is the number of slot-sized steps the scanner walks.
	HorizonSteps = 48

	// Horizon is the lookahead window covered by a scan.
	Horizon = HorizonSteps * Duration
)

// Slot is a 30-minute candidate or booked range. Start and End are kept in
// UTC; the Codec converts them to the local zone for display.
type Slot struct {
	Start time.Time
	End   time.Time
}

// New returns the slot starting at start.
func New(start time.Time) Slot {
	start = start.UTC()
	return Slot{Start: start, End: start.Add(Duration)}
}

// Equal reports whether both slots cover the same instants.
func (s Slot) Equal(other Slot) bool {
	return s.Start.Equal(other.Start) && s.End.Equal(other.End)
}

// Origin is the scan origin for now: the instant truncated to the minute.
func Origin(now time.Time) time.Time {
	return now.UTC().Truncate(time.Minute)
}

// NextFree returns the first free slot in the horizon starting at now
// truncated to the minute. Busy intervals need not be sorted.
func NextFree(now time.Time, busy []Interval) (Slot, error) {
	cursor := Origin(now)
	for i := 0; i < HorizonSteps; i++ {
		candidate := New(cursor)
		if !conflicts(candidate.Start, candidate.End, busy) {
			return candidate, nil
		}
		cursor = candidate.End
	}
	return Slot{}, &NotFoundError{What: "available slot in the next 24 hours"}
}

// AllFree returns every free slot in the horizon, in chronological order.
// An empty result is reported as *NotFoundError.
func AllFree(now time.Time, busy []Interval) ([]Slot, error) {
	cursor := Origin(now)
	windowEnd := cursor.Add(Horizon)

	var free []Slot
	for cursor.Before(windowEnd) {
		candidate := New(cursor)
		if !conflicts(candidate.Start, candidate.End, busy) {
			free = append(free, candidate)
		}
		cursor = candidate.End
	}

	if len(free) == 0 {
		return nil, &NotFoundError{What: "available slot in the next 24 hours"}
	}
	return free, nil
}
