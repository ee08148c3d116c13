// Package slot implements the availability model behind appointment booking.
//
// It contains three pieces that carry no provider-specific logic:
//
//   - Interval and Overlaps: busy time ranges and the half-open conflict test
//   - NextFree and AllFree: the scanner that walks a 24-hour horizon in
//     30-minute steps starting at an injected "now"
//   - Codec: the canonical slot string used both for display and as the
//     booking parameter, e.g. "2024-01-01 08:00 to 2024-01-01 08:30 (CDT)"
//
// The scanner is deterministic: the caller supplies "now" and the busy set.
// An empty scan result is reported as *NotFoundError rather than an empty
// slice, so callers can render a single negative message.
//
// Example usage:
//
//	codec := slot.NewCodec(loc, "CDT")
//	s, err := slot.NextFree(time.Now(), busy)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(codec.Encode(s))
package slot
