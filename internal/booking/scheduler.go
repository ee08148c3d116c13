package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/slotbook/internal/calendar"
	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/logging"
	"github.com/teemow/slotbook/internal/slot"
)

const (
	// DefaultConferenceSolution provisions a Google Meet link.
	DefaultConferenceSolution = "hangoutsMeet"

	// DefaultNextScanLimit caps the events read for a next-slot scan.
	DefaultNextScanLimit = 50

	// DefaultAllScanLimit caps the events read for an all-slots scan.
	DefaultAllScanLimit = 100

	// DefaultUpcomingLimit is used when Upcoming is called without a limit.
	DefaultUpcomingLimit = 10

	// MaxUpcomingLimit bounds a single Upcoming call.
	MaxUpcomingLimit = 250

	untitled = "(no title)"
)

// Calendar is the subset of the calendar provider the scheduler needs.
// *calendar.Client implements it.
type Calendar interface {
	ListEvents(ctx context.Context, q calendar.ListQuery) ([]calendar.Event, error)
	InsertEvent(ctx context.Context, input calendar.EventInput) (*calendar.CreatedEvent, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Identity resolves the signed-in user. *google.Session implements it.
type Identity interface {
	CurrentUserEmail(ctx context.Context) (string, error)
}

// Config configures a Scheduler.
type Config struct {
	// OrganizerEmail is the administrator who organizes every booking.
	// Scans and cancellations work without it; Book does not.
	OrganizerEmail string

	// Codec renders and parses slot strings. Defaults to the
	// America/Mexico_City zone with the CDT label.
	Codec *slot.Codec

	// ConferenceSolution is the conference type requested for bookings.
	ConferenceSolution string

	NextScanLimit int64
	AllScanLimit  int64
}

// Option configures optional Scheduler behavior.
type Option func(*Scheduler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithTokenGenerator overrides how conference request tokens are generated.
func WithTokenGenerator(gen func() string) Option {
	return func(s *Scheduler) {
		s.newToken = gen
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// Scheduler runs availability scans, bookings and cancellations against a
// single calendar.
type Scheduler struct {
	cal      Calendar
	identity Identity
	cfg      Config

	now      func() time.Time
	newToken func() string
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
}

// NewScheduler creates a Scheduler.
func NewScheduler(cal Calendar, identity Identity, cfg Config, opts ...Option) (*Scheduler, error) {
	if cal == nil {
		return nil, fmt.Errorf("calendar cannot be nil")
	}
	if identity == nil {
		return nil, fmt.Errorf("identity cannot be nil")
	}

	if cfg.Codec == nil {
		loc, err := time.LoadLocation(slot.DefaultZone)
		if err != nil {
			return nil, fmt.Errorf("failed to load zone %s: %w", slot.DefaultZone, err)
		}
		cfg.Codec = slot.NewCodec(loc, slot.DefaultLabel)
	}
	if cfg.ConferenceSolution == "" {
		cfg.ConferenceSolution = DefaultConferenceSolution
	}
	if cfg.NextScanLimit <= 0 {
		cfg.NextScanLimit = DefaultNextScanLimit
	}
	if cfg.AllScanLimit <= 0 {
		cfg.AllScanLimit = DefaultAllScanLimit
	}

	s := &Scheduler{
		cal:      cal,
		identity: identity,
		cfg:      cfg,
		now:      time.Now,
		newToken: uuid.NewString,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Codec returns the slot codec used for rendering and parsing.
func (s *Scheduler) Codec() *slot.Codec {
	return s.cfg.Codec
}

// OrganizerEmail returns the configured organizer.
func (s *Scheduler) OrganizerEmail() string {
	return s.cfg.OrganizerEmail
}

// NextSlot returns the earliest free slot in the next 24 hours, rendered as
// a slot string. No free slot yields an error matching IsNotFound.
func (s *Scheduler) NextSlot(ctx context.Context) (string, error) {
	now := s.now()

	busy, err := s.busy(ctx, now, s.cfg.NextScanLimit)
	if err != nil {
		return "", &OpError{Op: OpScan, Err: err}
	}

	free, err := slot.NextFree(now, busy)
	if err != nil {
		s.metrics.RecordSlotScan(ctx, instrumentation.ScanModeNext, 0)
		return "", &OpError{Op: OpScan, Err: err}
	}

	s.metrics.RecordSlotScan(ctx, instrumentation.ScanModeNext, 1)
	return s.cfg.Codec.Encode(free), nil
}

// AllSlots returns every free slot in the next 24 hours in chronological order.
func (s *Scheduler) AllSlots(ctx context.Context) ([]string, error) {
	now := s.now()

	busy, err := s.busy(ctx, now, s.cfg.AllScanLimit)
	if err != nil {
		return nil, &OpError{Op: OpScan, Err: err}
	}

	free, err := slot.AllFree(now, busy)
	if err != nil {
		s.metrics.RecordSlotScan(ctx, instrumentation.ScanModeAll, 0)
		return nil, &OpError{Op: OpScan, Err: err}
	}

	s.metrics.RecordSlotScan(ctx, instrumentation.ScanModeAll, len(free))
	return s.cfg.Codec.EncodeAll(free), nil
}

// busy lists events from now on and converts them to busy intervals.
func (s *Scheduler) busy(ctx context.Context, now time.Time, limit int64) ([]slot.Interval, error) {
	events, err := s.cal.ListEvents(ctx, calendar.ListQuery{
		TimeMin:      now,
		MaxResults:   limit,
		OrderByStart: true,
	})
	if err != nil {
		return nil, err
	}

	loc := s.cfg.Codec.Location()
	intervals := make([]slot.Interval, 0, len(events))
	for _, ev := range events {
		start, err := ev.Start.In(loc)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		end, err := ev.End.In(loc)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		iv, err := slot.NewInterval(start, end)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		intervals = append(intervals, iv)
	}

	logging.WithOperation(s.logger, OpScan).Debug("busy intervals loaded",
		"events", len(events),
		logging.Start(now),
	)
	return intervals, nil
}

// Appointment is an upcoming calendar entry prepared for display.
type Appointment struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	// Start and End are RFC 3339 instants in the local zone, or plain dates
	// for all-day entries.
	Start  string `json:"start"`
	End    string `json:"end"`
	AllDay bool   `json:"all_day,omitempty"`
}

// Upcoming lists up to max events starting from now, ordered by start time.
// A non-positive max uses DefaultUpcomingLimit.
func (s *Scheduler) Upcoming(ctx context.Context, max int64) ([]Appointment, error) {
	switch {
	case max <= 0:
		max = DefaultUpcomingLimit
	case max > MaxUpcomingLimit:
		max = MaxUpcomingLimit
	}

	events, err := s.cal.ListEvents(ctx, calendar.ListQuery{
		TimeMin:      s.now(),
		MaxResults:   max,
		OrderByStart: true,
	})
	if err != nil {
		return nil, &OpError{Op: OpUpcoming, Err: err}
	}

	loc := s.cfg.Codec.Location()
	appointments := make([]Appointment, 0, len(events))
	for _, ev := range events {
		summary := ev.Summary
		if summary == "" {
			summary = untitled
		}
		appointments = append(appointments, Appointment{
			ID:      ev.ID,
			Summary: summary,
			Start:   displayTime(ev.Start, loc),
			End:     displayTime(ev.End, loc),
			AllDay:  ev.Start.AllDay(),
		})
	}
	return appointments, nil
}

func displayTime(t calendar.EventTime, loc *time.Location) string {
	switch {
	case t.AllDay():
		return t.Date
	case t.DateTime.IsZero():
		return t.Raw
	}
	return t.DateTime.In(loc).Format(time.RFC3339)
}
