package google

// DefaultOAuthScopes are the scopes slotbook requests. Calendar access covers
// availability, booking and cancellation; the OpenID scopes resolve the
// signed-in organizer's email.
var DefaultOAuthScopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Google Calendar scope
	"https://www.googleapis.com/auth/calendar",
}
