// Package calendar is the adapter between slotbook and the Google Calendar
// events API.
//
// A Client targets one calendar and exposes the three calls the scheduler
// needs: listing expanded events in a window, inserting an event with a
// conference create request, and deleting an event by id. Every call is
// authorized per request through an HTTPClientSource, traced, metered and
// guarded by a circuit breaker that fails fast after repeated provider
// faults. No call is ever retried.
//
// Example usage:
//
//	client, err := calendar.NewClient(session, calendar.Config{CalendarID: "primary"})
//	if err != nil {
//	    return err
//	}
//	events, err := client.ListEvents(ctx, calendar.ListQuery{
//	    TimeMin:      time.Now(),
//	    MaxResults:   50,
//	    OrderByStart: true,
//	})
package calendar
