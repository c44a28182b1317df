package models

import "time"

// TokenRecord is a stored provider credential. Expiry is absolute Unix
// epoch seconds; a record exists only while the user has an active
// connection to the provider.
type TokenRecord struct {
	UserID       string    `json:"-"`
	Provider     Provider  `json:"provider"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       int64     `json:"expiry"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Expired reports whether the access token has passed its expiry at the
// given instant.
func (t TokenRecord) Expired(now time.Time) bool {
	return now.Unix() >= t.Expiry
}

// AuthAttempt is an in-flight PKCE authorization: the code verifier held
// server-side, keyed by the state parameter, until the code exchange
// completes.
type AuthAttempt struct {
	State     string    `json:"state"`
	UserID    string    `json:"user_id"`
	Provider  Provider  `json:"provider"`
	Verifier  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
