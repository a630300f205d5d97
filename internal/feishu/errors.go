package feishu

import (
	"errors"
	"fmt"
)

// CodeRateLimited is the application-level code mirroring HTTP 429.
const CodeRateLimited = 429

// authExpiredCodes signal an invalid or expired access token. The fix
// is re-authentication, not a retry.
var authExpiredCodes = map[int]bool{
	99991663: true,
	99991664: true,
}

// permissionCodes signal missing document or app scopes. Terminal.
var permissionCodes = map[int]bool{
	99991668: true,
	99991672: true,
	99991679: true,
	1770032:  true,
}

// APIError is an application-level failure from the response envelope:
// any non-zero code plus the server's message.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Msg)
}

// IsRateLimited reports whether err is a rate-limit rejection that
// survived the retry wrapper.
func IsRateLimited(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == CodeRateLimited
}

// IsAuthExpired reports whether err means the token must be renewed.
func IsAuthExpired(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && authExpiredCodes[ae.Code]
}

// IsPermissionDenied reports whether err means the app or user lacks
// access to the document.
func IsPermissionDenied(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && permissionCodes[ae.Code]
}
