package calendar

import (
	"errors"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// DateLayout is the layout of all-day event dates.
const DateLayout = "2006-01-02"

// ListQuery selects events for a list call.
type ListQuery struct {
	// TimeMin is the inclusive lower bound on event end time.
	TimeMin time.Time
	// TimeMax is the exclusive upper bound on event start time.
	// A zero value leaves the range open-ended.
	TimeMax time.Time
	// MaxResults caps the number of returned events; zero uses the provider default.
	MaxResults int64
	// OrderByStart orders events by start time.
	OrderByStart bool
}

// EventTime is either a timed instant or an all-day date.
type EventTime struct {
	DateTime time.Time
	// Date is set for all-day events, formatted as DateLayout.
	Date string
	// Raw keeps a dateTime the provider sent that is not RFC 3339.
	Raw string
}

// AllDay reports whether the time is a date without a time of day.
func (t EventTime) AllDay() bool {
	return t.Date != "" && t.Raw == "" && t.DateTime.IsZero()
}

// In resolves the time to an instant. All-day dates resolve to local midnight
// in loc. A malformed or missing time is an error.
func (t EventTime) In(loc *time.Location) (time.Time, error) {
	switch {
	case !t.DateTime.IsZero():
		return t.DateTime, nil
	case t.Raw != "":
		return time.Time{}, fmt.Errorf("invalid event time %q", t.Raw)
	case t.Date == "":
		return time.Time{}, errors.New("event time missing")
	}
	d, err := time.ParseInLocation(DateLayout, t.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid all-day date %q: %w", t.Date, err)
	}
	return d, nil
}

// Event is the subset of a calendar event the scheduler needs.
type Event struct {
	ID      string
	Summary string
	Start   EventTime
	End     EventTime
}

// EventInput describes an event to create.
type EventInput struct {
	Summary        string
	OrganizerEmail string
	Start          time.Time
	End            time.Time
	Attendees      []string

	// ConferenceRequestID, when set, asks the provider to create a video
	// meeting keyed by this one-time token.
	ConferenceRequestID string
	// ConferenceSolution is the conference solution type, e.g. "hangoutsMeet".
	ConferenceSolution string
}

// CreatedEvent holds the confirmation artifacts returned for a new event.
type CreatedEvent struct {
	ID         string
	HTMLLink   string
	MeetingURI string
}

// toEvent converts a Google Calendar event to an Event
func toEvent(event *calendar.Event) Event {
	if event == nil {
		return Event{}
	}
	return Event{
		ID:      event.Id,
		Summary: event.Summary,
		Start:   toEventTime(event.Start),
		End:     toEventTime(event.End),
	}
}

func toEventTime(dt *calendar.EventDateTime) EventTime {
	if dt == nil {
		return EventTime{}
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return EventTime{Date: dt.Date, Raw: dt.DateTime}
		}
		return EventTime{DateTime: t}
	}
	return EventTime{Date: dt.Date}
}

// toGoogleEvent builds the insert payload. Times are always sent in UTC.
func toGoogleEvent(input EventInput) *calendar.Event {
	event := &calendar.Event{
		Summary: input.Summary,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}

	if input.OrganizerEmail != "" {
		event.Organizer = &calendar.EventOrganizer{Email: input.OrganizerEmail}
	}

	for _, email := range input.Attendees {
		if email == "" {
			continue
		}
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	if input.ConferenceRequestID != "" {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: input.ConferenceRequestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: input.ConferenceSolution,
				},
			},
		}
	}

	return event
}

// meetingURI returns the video entry point, falling back to the first entry point.
func meetingURI(data *calendar.ConferenceData) string {
	if data == nil || len(data.EntryPoints) == 0 {
		return ""
	}
	for _, ep := range data.EntryPoints {
		if ep.EntryPointType == "video" && ep.Uri != "" {
			return ep.Uri
		}
	}
	return data.EntryPoints[0].Uri
}
