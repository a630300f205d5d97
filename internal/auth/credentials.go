package auth

import "time"

// Credentials is everything the provider persists between runs: the
// cached tenant token plus the user token pair when the app acts on a
// user's behalf.
type Credentials struct {
	TenantToken     string
	TenantFetchedAt time.Time
	AccessToken     string
	RefreshToken    string
	ExpiresAt       time.Time
}

// HasUserTokens reports whether a user grant is present; when it is,
// the provider prefers user tokens over the tenant token.
func (c *Credentials) HasUserTokens() bool {
	return c != nil && (c.AccessToken != "" || c.RefreshToken != "")
}

// Store persists credentials. Load returns (nil, nil) when nothing has
// been saved yet.
type Store interface {
	Load() (*Credentials, error)
	Save(*Credentials) error
	Clear() error
}
