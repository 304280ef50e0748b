// Package session implements the stateless session layer: all session
// state lives in a single AEAD-sealed cookie, so the server keeps no
// session table. A cookie that fails to unseal for any reason yields a
// fresh anonymous session rather than an error.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdwb/yawp/passkey"
)

// State is the plaintext session payload sealed into the cookie.
type State struct {
	ID            string            `json:"id"`
	Authenticated bool              `json:"authenticated"`
	Pending       *passkey.Ceremony `json:"pending,omitempty"`
	ExpiresAt     time.Time         `json:"expiresAt"`
}

// NewState returns a fresh anonymous session expiring ttl from now.
func NewState(now time.Time, ttl time.Duration) State {
	return State{
		ID:        uuid.NewString(),
		ExpiresAt: now.Add(ttl).UTC(),
	}
}

// Expired reports whether the session itself has lapsed at time now.
func (s State) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
