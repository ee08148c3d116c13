package slot

import (
	"fmt"
	"strings"
	"time"

	// Embedded zone database so the fixed local zone resolves on hosts
	// without /usr/share/zoneinfo.
	_ "time/tzdata"
)

const (
	// LocalLayout is the minute-precision layout of each half of a slot string.
	LocalLayout = "2006-01-02 15:04"

	// DefaultLabel is the literal zone label appended to every slot string.
	// It never changes with daylight-saving state.
	DefaultLabel = "CDT"

	// DefaultZone is the fixed local zone used for display and parsing.
	DefaultZone = "America/Mexico_City"

	rangeSeparator = " to "
	labelOpen      = " ("
	labelClose     = ")"
)

// FixedOffset reports whether loc keeps one UTC offset for the year after
// from. Slot strings are naive local times, so a zone that shifts its offset
// renders some slots with an end before their start.
func FixedOffset(loc *time.Location, from time.Time) bool {
	_, offset := from.In(loc).Zone()
	for day := 1; day <= 366; day++ {
		if _, o := from.AddDate(0, 0, day).In(loc).Zone(); o != offset {
			return false
		}
	}
	return true
}

// Codec converts slots to and from their canonical string form
// "YYYY-MM-DD HH:MM to YYYY-MM-DD HH:MM (LABEL)". The zone must keep a
// fixed UTC offset; see FixedOffset.
type Codec struct {
	loc   *time.Location
	label string
}

// NewCodec returns a codec rendering in loc with the literal label.
func NewCodec(loc *time.Location, label string) *Codec {
	if loc == nil {
		loc = time.UTC
	}
	if label == "" {
		label = DefaultLabel
	}
	return &Codec{loc: loc, label: label}
}

// Location returns the local zone used by the codec.
func (c *Codec) Location() *time.Location {
	return c.loc
}

// Label returns the literal zone label.
func (c *Codec) Label() string {
	return c.label
}

// Encode renders s in the local zone.
func (c *Codec) Encode(s Slot) string {
	return fmt.Sprintf("%s%s%s%s%s%s",
		s.Start.In(c.loc).Format(LocalLayout),
		rangeSeparator,
		s.End.In(c.loc).Format(LocalLayout),
		labelOpen, c.label, labelClose)
}

// EncodeAll renders every slot, preserving order.
func (c *Codec) EncodeAll(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, c.Encode(s))
	}
	return out
}

// Decode parses a canonical slot string. Both halves are read as naive local
// date-times in the codec's zone and returned in UTC. The label itself is not
// interpreted.
func (c *Codec) Decode(input string) (Slot, error) {
	times, label, ok := strings.Cut(input, labelOpen)
	if !ok || strings.Contains(label, labelOpen) || !strings.HasSuffix(label, labelClose) {
		return Slot{}, &MalformedSlotError{Input: input, Reason: `expected "<start> to <end> (<label>)"`}
	}

	startText, endText, ok := strings.Cut(times, rangeSeparator)
	if !ok || strings.Contains(endText, rangeSeparator) {
		return Slot{}, &MalformedSlotError{Input: input, Reason: `expected exactly one " to " separator`}
	}

	start, err := time.ParseInLocation(LocalLayout, startText, c.loc)
	if err != nil {
		return Slot{}, &MalformedSlotError{Input: input, Reason: "invalid start", Err: err}
	}
	end, err := time.ParseInLocation(LocalLayout, endText, c.loc)
	if err != nil {
		return Slot{}, &MalformedSlotError{Input: input, Reason: "invalid end", Err: err}
	}

	if end.Sub(start) != Duration {
		return Slot{}, &MalformedSlotError{
			Input:  input,
			Reason: fmt.Sprintf("slot must last exactly %s, got %s", Duration, end.Sub(start)),
		}
	}

	return Slot{Start: start.UTC(), End: end.UTC()}, nil
}
