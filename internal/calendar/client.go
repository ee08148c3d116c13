package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/slotbook/internal/google"
	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/logging"
)

// DefaultCalendarID is the calendar used when none is configured.
const DefaultCalendarID = "primary"

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("calendar provider temporarily unavailable")

// HTTPClientSource supplies authorized HTTP clients. *google.Session implements it.
type HTTPClientSource interface {
	HTTPClient(ctx context.Context) (*http.Client, error)
}

// Config configures a Client.
type Config struct {
	// CalendarID is the calendar every call targets (default: "primary").
	CalendarID string

	// Endpoint overrides the Calendar API base URL.
	Endpoint string

	// BreakerFailures is the number of consecutive provider failures that
	// opens the breaker (default: 5).
	BreakerFailures uint32

	// BreakerTimeout is how long the breaker stays open (default: 30s).
	BreakerTimeout time.Duration

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Client wraps the Google Calendar events API for a single calendar.
type Client struct {
	source     HTTPClientSource
	calendarID string
	endpoint   string
	breaker    *gobreaker.CircuitBreaker[any]
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// NewClient creates a Calendar client. Authorization is resolved per call,
// so a client can be built before the user has logged in.
func NewClient(source HTTPClientSource, cfg Config) (*Client, error) {
	if source == nil {
		return nil, fmt.Errorf("http client source cannot be nil")
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = DefaultCalendarID
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Client{
		source:     source,
		calendarID: cfg.CalendarID,
		endpoint:   cfg.Endpoint,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With(logging.Service(instrumentation.ServiceCalendar)),
	}

	c.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        instrumentation.ServiceCalendar,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !providerFault(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				logging.Breaker(name),
				"from", from.String(),
				"to", to.String(),
			)
			c.metrics.RecordCircuitBreakerChange(context.Background(), name, to.String())
		},
	})

	return c, nil
}

// CalendarID returns the calendar this client targets.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// ListEvents lists single (expanded) events matching q.
func (c *Client) ListEvents(ctx context.Context, q ListQuery) ([]Event, error) {
	result, err := c.execute(ctx, instrumentation.OperationList, func(ctx context.Context, svc *calendar.Service) (any, error) {
		call := svc.Events.List(c.calendarID).
			TimeMin(q.TimeMin.UTC().Format(time.RFC3339)).
			SingleEvents(true)
		if !q.TimeMax.IsZero() {
			call = call.TimeMax(q.TimeMax.UTC().Format(time.RFC3339))
		}
		if q.MaxResults > 0 {
			call = call.MaxResults(q.MaxResults)
		}
		if q.OrderByStart {
			call = call.OrderBy("startTime")
		}
		return call.Context(ctx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	items := result.(*calendar.Events).Items
	events := make([]Event, 0, len(items))
	for _, item := range items {
		events = append(events, toEvent(item))
	}
	return events, nil
}

// InsertEvent creates an event. When input carries a conference request id
// the call asks for conference data version 1 so a meeting is provisioned.
func (c *Client) InsertEvent(ctx context.Context, input EventInput) (*CreatedEvent, error) {
	result, err := c.execute(ctx, instrumentation.OperationCreate, func(ctx context.Context, svc *calendar.Service) (any, error) {
		call := svc.Events.Insert(c.calendarID, toGoogleEvent(input))
		if input.ConferenceRequestID != "" {
			call = call.ConferenceDataVersion(1)
		}
		return call.Context(ctx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	created := result.(*calendar.Event)
	return &CreatedEvent{
		ID:         created.Id,
		HTMLLink:   created.HtmlLink,
		MeetingURI: meetingURI(created.ConferenceData),
	}, nil
}

// DeleteEvent deletes an event by id.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return fmt.Errorf("event id cannot be empty")
	}

	_, err := c.execute(ctx, instrumentation.OperationDelete, func(ctx context.Context, svc *calendar.Service) (any, error) {
		return nil, svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// execute authorizes, traces, meters and breaker-guards one API call.
func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context, *calendar.Service) (any, error)) (any, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, operation)
	defer span.End()

	start := time.Now()
	result, err := c.breaker.Execute(func() (any, error) {
		return fn(ctx, svc)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	err = classify(err)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
		c.logger.Debug("calendar call failed", logging.Operation(operation), logging.Err(err))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, operation, status, time.Since(start))

	return result, err
}

func (c *Client) service(ctx context.Context) (*calendar.Service, error) {
	hc, err := c.source.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return svc, nil
}

// classify maps a 401 onto *google.AuthError. A 403 is left alone: Google
// also returns it for quota limits.
func classify(err error) error {
	if err == nil || google.IsAuthError(err) {
		return err
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized {
		return &google.AuthError{Reason: "calendar rejected credentials", Err: err}
	}
	return err
}

// providerFault reports whether err indicates the provider itself is failing.
// Client-side rejections (4xx) and auth problems do not trip the breaker.
func providerFault(err error) bool {
	if google.IsAuthError(err) || errors.Is(err, context.Canceled) {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code >= http.StatusInternalServerError || gerr.Code == http.StatusTooManyRequests
	}
	return true
}
