package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/slotbook/internal/calendar"
)

func TestScheduler_Cancel(t *testing.T) {
	cal := &fakeCalendar{events: []calendar.Event{
		timed("later", utc(2024, 1, 1, 10, 0), utc(2024, 1, 1, 10, 30)),
		timed("target", utc(2024, 1, 1, 8, 0), utc(2024, 1, 1, 8, 30)),
	}}
	s := newTestScheduler(t, cal, utc(2024, 1, 1, 6, 0))
	key := CancellationKey{Year: 2024, Month: 1, Day: 1, Hour: 8, Minute: 0}

	res, err := s.Cancel(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "target", res.EventID)
	assert.True(t, res.Start.Equal(utc(2024, 1, 1, 8, 0)))
	assert.Equal(t, "Cancelled appointment at 2024-01-01T08:00:00Z", res.Message())
	assert.Equal(t, []string{"target"}, cal.deleted)

	require.Len(t, cal.queries, 1)
	q := cal.queries[0]
	assert.True(t, q.TimeMin.Equal(utc(2024, 1, 1, 8, 0)))
	assert.True(t, q.TimeMax.Equal(utc(2024, 1, 1, 8, 30)))

	// The slot is now empty.
	_, err = s.Cancel(context.Background(), key)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "cancel: no appointment at 2024-01-01T08:00:00Z", err.Error())
	assert.Equal(t, []string{"target"}, cal.deleted)
}

func TestScheduler_CancelFirstMatchWins(t *testing.T) {
	cal := &fakeCalendar{events: []calendar.Event{
		timed("first", utc(2024, 1, 1, 7, 45), utc(2024, 1, 1, 8, 15)),
		timed("second", utc(2024, 1, 1, 8, 0), utc(2024, 1, 1, 8, 30)),
	}}
	s := newTestScheduler(t, cal, utc(2024, 1, 1, 6, 0))

	res, err := s.Cancel(context.Background(), CancellationKey{Year: 2024, Month: 1, Day: 1, Hour: 8})
	require.NoError(t, err)
	assert.Equal(t, "first", res.EventID)
	assert.Equal(t, []string{"first"}, cal.deleted)
}

func TestScheduler_CancelTouchingEventIsIgnored(t *testing.T) {
	cal := &fakeCalendar{events: []calendar.Event{
		timed("before", utc(2024, 1, 1, 7, 30), utc(2024, 1, 1, 8, 0)),
	}}
	s := newTestScheduler(t, cal, utc(2024, 1, 1, 6, 0))

	_, err := s.Cancel(context.Background(), CancellationKey{Year: 2024, Month: 1, Day: 1, Hour: 8})
	assert.True(t, IsNotFound(err))
	assert.Empty(t, cal.deleted)
}

func TestCancellationKey_Validate(t *testing.T) {
	tests := []struct {
		name  string
		key   CancellationKey
		field string
	}{
		{"valid", CancellationKey{Year: 2024, Month: 2, Day: 29, Hour: 23, Minute: 59}, ""},
		{"year", CancellationKey{Year: 0, Month: 1, Day: 1}, "year"},
		{"month", CancellationKey{Year: 2024, Month: 13, Day: 1}, "month"},
		{"day", CancellationKey{Year: 2023, Month: 2, Day: 29}, "day"},
		{"hour", CancellationKey{Year: 2024, Month: 1, Day: 1, Hour: 24}, "hour"},
		{"minute", CancellationKey{Year: 2024, Month: 1, Day: 1, Minute: -1}, "minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var invalid *InvalidArgumentError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestScheduler_CancelInvalidKey(t *testing.T) {
	cal := &fakeCalendar{}
	s := newTestScheduler(t, cal, utc(2024, 1, 1, 6, 0))

	_, err := s.Cancel(context.Background(), CancellationKey{Year: 2024, Month: 1, Day: 32})
	var invalid *InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Empty(t, cal.queries)
}

func TestScheduler_CancelDeleteFailure(t *testing.T) {
	cause := errors.New("gone")
	cal := &fakeCalendar{
		events:    []calendar.Event{timed("target", utc(2024, 1, 1, 8, 0), utc(2024, 1, 1, 8, 30))},
		deleteErr: cause,
	}
	s := newTestScheduler(t, cal, utc(2024, 1, 1, 6, 0))

	_, err := s.Cancel(context.Background(), CancellationKey{Year: 2024, Month: 1, Day: 1, Hour: 8})
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsNotFound(err))
}
