// Package booking turns calendar state into appointment operations.
//
// A Scheduler reads busy intervals from a Calendar, runs the availability
// scanner from package slot, renders slots with a slot.Codec, and books or
// cancels 30-minute appointments. Every booking carries a fresh conference
// request token. Nothing is reserved locally, so two concurrent bookings of
// the same slot race at the calendar provider.
package booking
