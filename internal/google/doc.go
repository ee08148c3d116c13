// Package google manages the single installed-app OAuth session slotbook
// uses to reach Google APIs.
//
// A Session loads client secrets, exchanges authorization codes, persists the
// token to disk, hands out authorized HTTP clients with refresh write-back,
// resolves the signed-in user's email and revokes credentials on logout.
package google
