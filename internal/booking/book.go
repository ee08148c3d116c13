package booking

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/slotbook/internal/calendar"
	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/logging"
)

// BookingRequest asks for an appointment in a slot previously offered by
// NextSlot or AllSlots.
type BookingRequest struct {
	Slot      string
	FirstName string
	LastName  string
}

// Confirmation describes a booked appointment.
type Confirmation struct {
	EventID          string `json:"event_id"`
	Summary          string `json:"summary"`
	Slot             string `json:"slot"`
	MeetingLink      string `json:"meeting_link"`
	CalendarViewLink string `json:"calendar_view_link"`
	OrganizerEmail   string `json:"organizer_email"`
	GuestEmail       string `json:"guest_email"`
}

// Message renders the confirmation as a single sentence for the user.
func (c *Confirmation) Message() string {
	return fmt.Sprintf("Booked '%s' from %s. Attendees: you (%s) & organizer (%s). Meet: %s. View: %s",
		c.Summary, c.Slot, c.GuestEmail, c.OrganizerEmail, c.MeetingLink, c.CalendarViewLink)
}

// Book creates a 30-minute appointment in the requested slot with a fresh
// video meeting. The signed-in user and the organizer are both invited.
//
// The slot is not re-checked against the calendar and nothing is reserved
// locally. For an occupied slot or two concurrent bookings of one slot the
// calendar decides: it may accept a double booking or reject the insert,
// which surfaces as a *BookingError.
func (s *Scheduler) Book(ctx context.Context, req BookingRequest) (*Confirmation, error) {
	ctx, span := instrumentation.StartSpan(ctx, "booking."+OpBook, instrumentation.NewSpanAttributeBuilder().
		WithOperation(OpBook).
		WithResource("slot", req.Slot).
		Build()...)
	defer span.End()

	confirmation, err := s.book(ctx, req)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	instrumentation.AddSpanEvent(span, "appointment.booked", attribute.String(spanAttrEventID, confirmation.EventID))
	instrumentation.SetSpanSuccess(span)
	return confirmation, nil
}

func (s *Scheduler) book(ctx context.Context, req BookingRequest) (*Confirmation, error) {
	logger := logging.WithOperation(s.logger, OpBook)

	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	if first == "" {
		return nil, s.rejectBooking(ctx, &InvalidArgumentError{Field: "first_name", Reason: "cannot be empty"})
	}
	if last == "" {
		return nil, s.rejectBooking(ctx, &InvalidArgumentError{Field: "last_name", Reason: "cannot be empty"})
	}

	booked, err := s.cfg.Codec.Decode(req.Slot)
	if err != nil {
		return nil, s.rejectBooking(ctx, err)
	}

	organizer := s.cfg.OrganizerEmail
	if organizer == "" {
		return nil, s.rejectBooking(ctx, &BookingError{Reason: "organizer email is not configured"})
	}

	guest, err := s.identity.CurrentUserEmail(ctx)
	if err != nil {
		s.metrics.RecordBooking(ctx, instrumentation.ResultFailed)
		return nil, &OpError{Op: OpBook, Err: err}
	}

	summary := first + " " + last
	created, err := s.cal.InsertEvent(ctx, calendar.EventInput{
		Summary:             summary,
		OrganizerEmail:      organizer,
		Start:               booked.Start,
		End:                 booked.End,
		Attendees:           []string{guest, organizer},
		ConferenceRequestID: s.newToken(),
		ConferenceSolution:  s.cfg.ConferenceSolution,
	})
	if err != nil {
		s.metrics.RecordBooking(ctx, instrumentation.ResultFailed)
		return nil, &OpError{Op: OpBook, Err: &BookingError{Reason: "calendar did not accept the event", Err: err}}
	}

	switch {
	case created.MeetingURI == "":
		s.metrics.RecordBooking(ctx, instrumentation.ResultFailed)
		return nil, &OpError{Op: OpBook, Err: &BookingError{Reason: "no meeting link in response", EventID: created.ID}}
	case created.HTMLLink == "":
		s.metrics.RecordBooking(ctx, instrumentation.ResultFailed)
		return nil, &OpError{Op: OpBook, Err: &BookingError{Reason: "no calendar link in response", EventID: created.ID}}
	}

	s.metrics.RecordBooking(ctx, instrumentation.ResultBooked)
	logger.Info("appointment booked",
		logging.EventID(created.ID),
		logging.Start(booked.Start),
		logging.UserHash(guest),
	)

	return &Confirmation{
		EventID:          created.ID,
		Summary:          summary,
		Slot:             req.Slot,
		MeetingLink:      created.MeetingURI,
		CalendarViewLink: created.HTMLLink,
		OrganizerEmail:   organizer,
		GuestEmail:       guest,
	}, nil
}

// rejectBooking records a booking refused before reaching the calendar.
func (s *Scheduler) rejectBooking(ctx context.Context, err error) error {
	s.metrics.RecordBooking(ctx, instrumentation.ResultRejected)
	return &OpError{Op: OpBook, Err: err}
}
