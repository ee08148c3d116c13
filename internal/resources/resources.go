package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbook/internal/booking"
	"github.com/teemow/slotbook/internal/logging"
	"github.com/teemow/slotbook/internal/server"
)

// Resource URIs.
const (
	ProfileURI  = "user://profile"
	UpcomingURI = "calendar://appointments/upcoming"
)

// Profile describes the signed-in account and how slots are presented.
type Profile struct {
	SignedIn       bool   `json:"signed_in"`
	Email          string `json:"email,omitempty"`
	OrganizerEmail string `json:"organizer_email,omitempty"`
	TimeZone       string `json:"time_zone"`
	SlotLabel      string `json:"slot_label"`
	ReadOnly       bool   `json:"read_only"`
}

// RegisterResources registers the profile and upcoming appointments resources
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	profileResource := mcp.NewResource(
		ProfileURI,
		"Current User Profile",
		mcp.WithResourceDescription("Google sign-in state and the scheduling settings in effect"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(profileResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleUserProfile(ctx, request, sc)
	})

	upcomingResource := mcp.NewResource(
		UpcomingURI,
		"Upcoming Appointments",
		mcp.WithResourceDescription(fmt.Sprintf("The next %d calendar entries, ordered by start time", booking.DefaultUpcomingLimit)),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(upcomingResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleUpcoming(ctx, request, sc)
	})

	return nil
}

// handleUserProfile reports the sign-in state. A session that cannot
// resolve the email is reported as signed out rather than failing the read.
func handleUserProfile(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	codec := sc.Scheduler().Codec()
	profile := Profile{
		OrganizerEmail: sc.Scheduler().OrganizerEmail(),
		TimeZone:       codec.Location().String(),
		SlotLabel:      codec.Label(),
		ReadOnly:       sc.ReadOnly(),
	}

	if sc.Session().HasToken() {
		email, err := sc.Session().CurrentUserEmail(ctx)
		if err != nil {
			sc.Logger().Debug("profile email lookup failed", logging.Err(err))
		} else {
			profile.SignedIn = true
			profile.Email = email
		}
	}

	return jsonContents(request.Params.URI, profile)
}

func handleUpcoming(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	appointments, err := sc.Scheduler().Upcoming(ctx, booking.DefaultUpcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	return jsonContents(request.Params.URI, appointments)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
