package google

import "errors"

// ErrNotLoggedIn is reported when no persisted token exists.
var ErrNotLoggedIn = errors.New("no stored Google credentials; run `slotbook auth login` or call auth_get_url")

// AuthError reports a missing, expired or unrefreshable session.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return "google auth: " + e.Reason + ": " + e.Err.Error()
	}
	return "google auth: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err carries an *AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
