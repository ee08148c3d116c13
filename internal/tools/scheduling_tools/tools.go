package scheduling_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbook/internal/booking"
	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/server"
	"github.com/teemow/slotbook/internal/tools/common"
)

// NoSlotsMessage is returned when the scan finds nothing.
const NoSlotsMessage = "No available slots in the next 24 hours."

// RegisterSchedulingTools registers the scheduling tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	nextTool := mcp.NewTool("get_next_available_appointment",
		mcp.WithDescription("Get the earliest free 30-minute appointment slot in the next 24 hours. "+
			"Returns a slot string such as '2024-01-01 08:00 to 2024-01-01 08:30 (CDT)'."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(nextTool, common.InstrumentedToolHandlerWithService("get_next_available_appointment",
		instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleNextAvailable(ctx, request, sc)
		}))

	allTool := mcp.NewTool("get_all_available_appointments",
		mcp.WithDescription("List every free 30-minute appointment slot in the next 24 hours, one slot string per line."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(allTool, common.InstrumentedToolHandlerWithService("get_all_available_appointments",
		instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAllAvailable(ctx, request, sc)
		}))

	upcomingTool := mcp.NewTool("list_upcoming_appointments",
		mcp.WithDescription("List upcoming calendar entries ordered by start time."),
		mcp.WithNumber("max_results",
			mcp.Description(fmt.Sprintf("Maximum number of entries to return (default: %d, max: %d)",
				booking.DefaultUpcomingLimit, booking.MaxUpcomingLimit)),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(upcomingTool, common.InstrumentedToolHandlerWithService("list_upcoming_appointments",
		instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListUpcoming(ctx, request, sc)
		}))

	if sc.ReadOnly() {
		return nil
	}

	bookTool := mcp.NewTool("book_appointment_by_slot",
		mcp.WithDescription("Book a 30-minute appointment with a Google Meet link in a slot previously returned by "+
			"get_next_available_appointment or get_all_available_appointments. Pass the slot string unchanged."),
		mcp.WithString("slot",
			mcp.Required(),
			mcp.Description("Slot string, e.g. '2024-01-01 08:00 to 2024-01-01 08:30 (CDT)'"),
		),
		mcp.WithString("first_name",
			mcp.Required(),
			mcp.Description("Guest first name"),
		),
		mcp.WithString("last_name",
			mcp.Required(),
			mcp.Description("Guest last name"),
		),
	)
	s.AddTool(bookTool, common.InstrumentedToolHandlerWithService("book_appointment_by_slot",
		instrumentation.ServiceCalendar, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBook(ctx, request, sc)
		}))

	cancelTool := mcp.NewTool("cancel_appointment",
		mcp.WithDescription("Cancel the appointment starting at the given time. All fields are in UTC."),
		mcp.WithNumber("appointment_year", mcp.Required(), mcp.Description("Year, e.g. 2024")),
		mcp.WithNumber("appointment_month", mcp.Required(), mcp.Description("Month, 1-12")),
		mcp.WithNumber("appointment_day", mcp.Required(), mcp.Description("Day of month, 1-31")),
		mcp.WithNumber("appointment_hour", mcp.Required(), mcp.Description("Hour, 0-23")),
		mcp.WithNumber("appointment_minute", mcp.Required(), mcp.Description("Minute, 0-59")),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(cancelTool, common.InstrumentedToolHandlerWithService("cancel_appointment",
		instrumentation.ServiceCalendar, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCancel(ctx, request, sc)
		}))

	return nil
}

func handleNextAvailable(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	slot, err := sc.Scheduler().NextSlot(ctx)
	if booking.IsNotFound(err) {
		return mcp.NewToolResultText(NoSlotsMessage), nil
	}
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(slot), nil
}

func handleAllAvailable(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	slots, err := sc.Scheduler().AllSlots(ctx)
	if booking.IsNotFound(err) {
		return mcp.NewToolResultText(NoSlotsMessage), nil
	}
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(strings.Join(slots, "\n")), nil
}

func handleListUpcoming(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	max := request.GetInt("max_results", booking.DefaultUpcomingLimit)
	if max <= 0 {
		return mcp.NewToolResultError("max_results must be positive"), nil
	}

	appointments, err := sc.Scheduler().Upcoming(ctx, int64(max))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	if len(appointments) == 0 {
		return mcp.NewToolResultText("No upcoming appointments."), nil
	}

	data, err := json.MarshalIndent(appointments, "", "  ")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func handleBook(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	slot, err := request.RequireString("slot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	firstName, err := request.RequireString("first_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lastName, err := request.RequireString("last_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	confirmation, err := sc.Scheduler().Book(ctx, booking.BookingRequest{
		Slot:      slot,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(confirmation.Message()), nil
}

func handleCancel(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	var key booking.CancellationKey
	fields := []struct {
		name string
		dst  *int
	}{
		{"appointment_year", &key.Year},
		{"appointment_month", &key.Month},
		{"appointment_day", &key.Day},
		{"appointment_hour", &key.Hour},
		{"appointment_minute", &key.Minute},
	}
	for _, f := range fields {
		v, err := request.RequireInt(f.name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		*f.dst = v
	}

	result, err := sc.Scheduler().Cancel(ctx, key)
	if booking.IsNotFound(err) {
		return mcp.NewToolResultText("No appointment at " + key.Start().Format(time.RFC3339)), nil
	}
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(result.Message()), nil
}
