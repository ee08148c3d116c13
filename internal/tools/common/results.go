package common

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/slotbook/internal/booking"
	"github.com/teemow/slotbook/internal/calendar"
	"github.com/teemow/slotbook/internal/google"
)

// NotLoggedInHint tells the assistant how to recover from a missing session.
const NotLoggedInHint = "Not signed in to Google Calendar. Call auth_get_url, have the user authorize, then call auth_save_code with the code."

// ErrorResult converts a failure into a tool error result the assistant can
// relay to the user.
func ErrorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(ErrorText(err))
}

// ErrorText renders err for a tool response.
func ErrorText(err error) string {
	var invalid *booking.InvalidArgumentError

	switch {
	case google.IsAuthError(err):
		return fmt.Sprintf("%s (%v)", NotLoggedInHint, err)
	case errors.Is(err, calendar.ErrUnavailable):
		return "Google Calendar is temporarily unavailable. Try again in a minute."
	case booking.IsMalformedSlot(err):
		return fmt.Sprintf("Invalid slot: %v. Pass a slot exactly as it was offered.", err)
	case errors.As(err, &invalid):
		return fmt.Sprintf("Invalid request: %v", invalid)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
