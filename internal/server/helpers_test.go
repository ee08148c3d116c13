package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teemow/slotbook/internal/booking"
	"github.com/teemow/slotbook/internal/calendar"
)

type stubCalendar struct{}

func (stubCalendar) ListEvents(context.Context, calendar.ListQuery) ([]calendar.Event, error) {
	return nil, nil
}

func (stubCalendar) InsertEvent(context.Context, calendar.EventInput) (*calendar.CreatedEvent, error) {
	return &calendar.CreatedEvent{ID: "evt", HTMLLink: "https://calendar.example/evt", MeetingURI: "https://meet.example/evt"}, nil
}

func (stubCalendar) DeleteEvent(context.Context, string) error {
	return nil
}

type stubSession struct {
	loggedIn bool
}

func (s *stubSession) AuthURL() string                        { return "https://accounts.example/auth" }
func (s *stubSession) Exchange(context.Context, string) error { s.loggedIn = true; return nil }
func (s *stubSession) Logout(context.Context) (string, error) {
	s.loggedIn = false
	return "logged out", nil
}
func (s *stubSession) HasToken() bool { return s.loggedIn }
func (s *stubSession) CurrentUserEmail(context.Context) (string, error) {
	return "guest@example.com", nil
}

func newTestServerContext(t *testing.T, session *stubSession, opts ...Option) *ServerContext {
	t.Helper()

	scheduler, err := booking.NewScheduler(stubCalendar{}, session, booking.Config{OrganizerEmail: "admin@example.com"},
		booking.WithClock(func() time.Time { return time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC) }))
	require.NoError(t, err)

	sc, err := NewServerContext(context.Background(), scheduler, session, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}
