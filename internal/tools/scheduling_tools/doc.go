// Package scheduling_tools provides the MCP tools an assistant uses to offer,
// book, cancel and list 30-minute appointments.
//
// Available tools:
//   - get_next_available_appointment: earliest free slot in the next 24 hours
//   - get_all_available_appointments: every free slot in the next 24 hours
//   - list_upcoming_appointments: upcoming calendar entries
//   - book_appointment_by_slot: book an offered slot (write)
//   - cancel_appointment: cancel by start time in UTC (write)
//
// Write tools are not registered in read-only mode.
package scheduling_tools
