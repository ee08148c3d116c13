package booking

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/slotbook/internal/calendar"
	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/logging"
	"github.com/teemow/slotbook/internal/slot"
)

// CancellationKey identifies an appointment by its start instant, given as
// UTC calendar fields.
type CancellationKey struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Validate checks every field is inside its calendar range.
func (k CancellationKey) Validate() error {
	switch {
	case k.Year < 1 || k.Year > 9999:
		return &InvalidArgumentError{Field: "year", Reason: "must be between 1 and 9999"}
	case k.Month < 1 || k.Month > 12:
		return &InvalidArgumentError{Field: "month", Reason: "must be between 1 and 12"}
	case k.Day < 1 || k.Day > daysIn(k.Year, time.Month(k.Month)):
		return &InvalidArgumentError{Field: "day", Reason: "out of range for month"}
	case k.Hour < 0 || k.Hour > 23:
		return &InvalidArgumentError{Field: "hour", Reason: "must be between 0 and 23"}
	case k.Minute < 0 || k.Minute > 59:
		return &InvalidArgumentError{Field: "minute", Reason: "must be between 0 and 59"}
	}
	return nil
}

// Start returns the UTC instant named by the key.
func (k CancellationKey) Start() time.Time {
	return time.Date(k.Year, time.Month(k.Month), k.Day, k.Hour, k.Minute, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// CancellationResult describes a deleted appointment.
type CancellationResult struct {
	EventID string    `json:"event_id"`
	Summary string    `json:"summary,omitempty"`
	Start   time.Time `json:"start"`
}

// Message renders the result as a single sentence for the user.
func (r *CancellationResult) Message() string {
	return "Cancelled appointment at " + r.Start.UTC().Format(time.RFC3339)
}

// Cancel deletes the appointment occupying the slot-length window that
// starts at key. When several events overlap the window the first one the
// calendar returns is deleted. An empty window yields an error matching
// IsNotFound.
func (s *Scheduler) Cancel(ctx context.Context, key CancellationKey) (*CancellationResult, error) {
	ctx, span := instrumentation.StartSpan(ctx, "booking."+OpCancel, instrumentation.NewSpanAttributeBuilder().
		WithOperation(OpCancel).
		WithResource("appointment", key.Start().Format(time.RFC3339)).
		Build()...)
	defer span.End()

	result, err := s.cancel(ctx, key)
	switch {
	case IsNotFound(err):
		instrumentation.AddSpanEvent(span, "appointment.not_found")
		return nil, err
	case err != nil:
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	instrumentation.AddSpanEvent(span, "appointment.cancelled", attribute.String(spanAttrEventID, result.EventID))
	instrumentation.SetSpanSuccess(span)
	return result, nil
}

func (s *Scheduler) cancel(ctx context.Context, key CancellationKey) (*CancellationResult, error) {
	if err := key.Validate(); err != nil {
		s.metrics.RecordCancellation(ctx, instrumentation.ResultRejected)
		return nil, &OpError{Op: OpCancel, Err: err}
	}

	start := key.Start()
	events, err := s.cal.ListEvents(ctx, calendar.ListQuery{
		TimeMin: start,
		TimeMax: start.Add(slot.Duration),
	})
	if err != nil {
		s.metrics.RecordCancellation(ctx, instrumentation.ResultFailed)
		return nil, &OpError{Op: OpCancel, Err: err}
	}

	if len(events) == 0 {
		s.metrics.RecordCancellation(ctx, instrumentation.ResultNotFound)
		return nil, &OpError{Op: OpCancel, Err: &slot.NotFoundError{What: "appointment", At: start}}
	}

	target := events[0]
	if err := s.cal.DeleteEvent(ctx, target.ID); err != nil {
		s.metrics.RecordCancellation(ctx, instrumentation.ResultFailed)
		return nil, &OpError{Op: OpCancel, Err: err}
	}

	s.metrics.RecordCancellation(ctx, instrumentation.ResultCanceled)
	logging.WithOperation(s.logger, OpCancel).Info("appointment cancelled",
		logging.EventID(target.ID),
		logging.Start(start),
		"matches", len(events),
	)

	return &CancellationResult{EventID: target.ID, Summary: target.Summary, Start: start}, nil
}
