package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/slotbook/internal/google"
)

type staticSource struct {
	client *http.Client
	err    error
}

func (s staticSource) HTTPClient(context.Context) (*http.Client, error) {
	return s.client, s.err
}

// fakeCalendar records requests to the events endpoints.
type fakeCalendar struct {
	srv  *httptest.Server
	hits atomic.Int32

	mu         sync.Mutex
	lastQuery  url.Values
	lastInsert *calendar.Event
	deleted    []string

	status int
}

func newFakeCalendar(t *testing.T) *fakeCalendar {
	t.Helper()

	f := &fakeCalendar{status: http.StatusOK}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)

		f.mu.Lock()
		f.lastQuery = r.URL.Query()
		status := f.status
		f.mu.Unlock()

		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"code":` + strconv.Itoa(status) + `,"message":"fake failure"}}`))
			return
		}

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/calendars/primary/events":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"items":[
				{"id":"e1","summary":"Busy","start":{"dateTime":"2024-01-01T09:00:00Z"},"end":{"dateTime":"2024-01-01T10:00:00Z"}},
				{"id":"e2","start":{"date":"2024-01-02"},"end":{"date":"2024-01-03"}}
			]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/calendars/primary/events":
			var ev calendar.Event
			_ = json.NewDecoder(r.Body).Decode(&ev)
			f.mu.Lock()
			f.lastInsert = &ev
			f.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"new1","htmlLink":"https://calendar.google.com/event?eid=new1",
				"conferenceData":{"entryPoints":[
					{"entryPointType":"phone","uri":"tel:+1-555"},
					{"entryPointType":"video","uri":"https://meet.google.com/abc-defg-hij"}]}}`))
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/calendars/primary/events/"):
			f.mu.Lock()
			f.deleted = append(f.deleted, strings.TrimPrefix(r.URL.Path, "/calendars/primary/events/"))
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeCalendar) setStatus(status int) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()
}

func (f *fakeCalendar) client(t *testing.T, cfg Config) *Client {
	t.Helper()

	cfg.Endpoint = f.srv.URL + "/"
	c, err := NewClient(staticSource{client: f.srv.Client()}, cfg)
	require.NoError(t, err)
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(staticSource{}, Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultCalendarID, c.CalendarID())

	_, err = NewClient(nil, Config{})
	assert.Error(t, err)
}

func TestClient_ListEvents(t *testing.T) {
	f := newFakeCalendar(t)
	c := f.client(t, Config{})

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events, err := c.ListEvents(context.Background(), ListQuery{
		TimeMin:      from,
		MaxResults:   50,
		OrderByStart: true,
	})
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "e1", events[0].ID)
	assert.True(t, events[0].Start.DateTime.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
	assert.True(t, events[1].Start.AllDay())
	assert.Equal(t, "2024-01-02", events[1].Start.Date)

	f.mu.Lock()
	q := f.lastQuery
	f.mu.Unlock()
	assert.Equal(t, "2024-01-01T00:00:00Z", q.Get("timeMin"))
	assert.Equal(t, "", q.Get("timeMax"))
	assert.Equal(t, "true", q.Get("singleEvents"))
	assert.Equal(t, "startTime", q.Get("orderBy"))
	assert.Equal(t, "50", q.Get("maxResults"))
}

func TestClient_ListEventsWindow(t *testing.T) {
	f := newFakeCalendar(t)
	c := f.client(t, Config{})

	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	_, err := c.ListEvents(context.Background(), ListQuery{TimeMin: start, TimeMax: start.Add(30 * time.Minute)})
	require.NoError(t, err)

	f.mu.Lock()
	q := f.lastQuery
	f.mu.Unlock()
	assert.Equal(t, "2024-01-01T08:00:00Z", q.Get("timeMin"))
	assert.Equal(t, "2024-01-01T08:30:00Z", q.Get("timeMax"))
	assert.Equal(t, "", q.Get("orderBy"))
	assert.Equal(t, "", q.Get("maxResults"))
}

func TestClient_InsertEvent(t *testing.T) {
	f := newFakeCalendar(t)
	c := f.client(t, Config{})

	start := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)
	created, err := c.InsertEvent(context.Background(), EventInput{
		Summary:             "Ada Lovelace",
		OrganizerEmail:      "admin@example.com",
		Start:               start,
		End:                 start.Add(30 * time.Minute),
		Attendees:           []string{"admin@example.com", "admin@example.com"},
		ConferenceRequestID: "token-1",
		ConferenceSolution:  "hangoutsMeet",
	})
	require.NoError(t, err)

	assert.Equal(t, "new1", created.ID)
	assert.Equal(t, "https://calendar.google.com/event?eid=new1", created.HTMLLink)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", created.MeetingURI)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, "1", f.lastQuery.Get("conferenceDataVersion"))
	require.NotNil(t, f.lastInsert)
	assert.Equal(t, "2024-01-01T14:00:00Z", f.lastInsert.Start.DateTime)
	assert.Equal(t, "UTC", f.lastInsert.Start.TimeZone)
	assert.Equal(t, "token-1", f.lastInsert.ConferenceData.CreateRequest.RequestId)
	assert.Len(t, f.lastInsert.Attendees, 2)
}

func TestClient_DeleteEvent(t *testing.T) {
	f := newFakeCalendar(t)
	c := f.client(t, Config{})

	require.NoError(t, c.DeleteEvent(context.Background(), "e1"))
	f.mu.Lock()
	assert.Equal(t, []string{"e1"}, f.deleted)
	f.mu.Unlock()

	assert.Error(t, c.DeleteEvent(context.Background(), ""))
}

func TestClient_SourceAuthError(t *testing.T) {
	c, err := NewClient(staticSource{err: &google.AuthError{Reason: "not logged in"}}, Config{})
	require.NoError(t, err)

	_, err = c.ListEvents(context.Background(), ListQuery{TimeMin: time.Now()})
	assert.True(t, google.IsAuthError(err))
}

func TestClient_UnauthorizedBecomesAuthError(t *testing.T) {
	f := newFakeCalendar(t)
	f.setStatus(http.StatusUnauthorized)
	c := f.client(t, Config{})

	_, err := c.ListEvents(context.Background(), ListQuery{TimeMin: time.Now()})
	assert.True(t, google.IsAuthError(err))
}

func TestClient_ForbiddenIsNotAuthError(t *testing.T) {
	f := newFakeCalendar(t)
	f.setStatus(http.StatusForbidden)
	c := f.client(t, Config{})

	_, err := c.ListEvents(context.Background(), ListQuery{TimeMin: time.Now()})
	require.Error(t, err)
	assert.False(t, google.IsAuthError(err), "403 also covers quota limits")
}

func TestClient_BreakerOpensOnProviderFaults(t *testing.T) {
	f := newFakeCalendar(t)
	f.setStatus(http.StatusInternalServerError)
	c := f.client(t, Config{BreakerFailures: 2, BreakerTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.ListEvents(ctx, ListQuery{TimeMin: time.Now()})
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrUnavailable))
	}
	hits := f.hits.Load()

	_, err := c.ListEvents(ctx, ListQuery{TimeMin: time.Now()})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, hits, f.hits.Load(), "open breaker must not reach the provider")
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	f := newFakeCalendar(t)
	f.setStatus(http.StatusNotFound)
	c := f.client(t, Config{BreakerFailures: 1})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := c.DeleteEvent(ctx, "missing")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrUnavailable))
	}
}
