// Package auth_tools provides MCP tools for signing slotbook in to Google.
//
// The OAuth flow:
//  1. Call auth_get_url to get the authorization URL
//  2. The user visits the URL and authorizes calendar access
//  3. The user provides the authorization code
//  4. Call auth_save_code with the code to persist the token
//
// Once signed in, the scheduling tools use the saved token, which is
// refreshed as needed. The logout tool revokes and deletes it; it is not
// registered in read-only mode.
package auth_tools
