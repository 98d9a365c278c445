package model

import "time"

// AuthCallback is what the OAuth dialog hands back after login. Either
// ExpiresAt or ExpiresIn (seconds) may be given.
type AuthCallback struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	State       string    `json:"state"`
}

// LoginRequest is a prepared OAuth dialog redirect.
type LoginRequest struct {
	URL       string    `json:"url"`
	State     string    `json:"state"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StoredToken is the persisted access token.
type StoredToken struct {
	AccessToken string    `json:"access_token"`
	ObtainedAt  time.Time `json:"obtained_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthStatus describes the current login state.
type AuthStatus struct {
	Configured    bool       `json:"configured"`
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}
