package auth_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/logging"
	"github.com/teemow/slotbook/internal/server"
	"github.com/teemow/slotbook/internal/tools/common"
)

// RegisterAuthTools registers the Google sign-in tools with the MCP server
func RegisterAuthTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getAuthURLTool := mcp.NewTool("auth_get_url",
		mcp.WithDescription("Get the OAuth URL to authorize slotbook to read and write your Google Calendar"),
	)
	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler("auth_get_url", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(ctx, request, sc)
		}))

	saveCodeTool := mcp.NewTool("auth_save_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Google Calendar sign-in"),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("The authorization code shown by Google after consent"),
		),
	)
	s.AddTool(saveCodeTool, common.InstrumentedToolHandlerWithService("auth_save_code",
		instrumentation.ServiceOAuth2, instrumentation.OperationExchange, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveCode(ctx, request, sc)
		}))

	if sc.ReadOnly() {
		return nil
	}

	logoutTool := mcp.NewTool("logout",
		mcp.WithDescription("Sign out of Google: revoke the stored token and delete it from disk"),
	)
	s.AddTool(logoutTool, common.InstrumentedToolHandlerWithService("logout",
		instrumentation.ServiceOAuth2, instrumentation.OperationRevoke, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleLogout(ctx, request, sc)
		}))

	return nil
}

func handleGetAuthURL(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	authURL := sc.Session().AuthURL()

	result := fmt.Sprintf(`To authorize Google Calendar access:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant calendar access
4. Copy the authorization code

5. Call the auth_save_code tool with the code to complete sign-in`, authURL)

	return mcp.NewToolResultText(result), nil
}

func handleSaveCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	code, ok := args["code"].(string)
	if !ok || strings.TrimSpace(code) == "" {
		return mcp.NewToolResultError("code is required"), nil
	}

	if err := sc.Session().Exchange(ctx, code); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code: %v", err)), nil
	}

	email, err := sc.Session().CurrentUserEmail(ctx)
	if err != nil {
		sc.Logger().Warn("signed in but could not resolve user email", logging.Err(err))
		return mcp.NewToolResultText("Authorization successful. Google Calendar token saved."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Authorization successful. Signed in as %s.", email)), nil
}

func handleLogout(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	msg, err := sc.Session().Logout(ctx)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(msg), nil
}
