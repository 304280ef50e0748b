// Package passkey implements the WebAuthn ceremony core: challenge
// issuance and cryptographic verification of registration and login
// responses for a single-admin relying party.
//
// The wire format is the pared-down one the client pages speak: the
// platform extracts the raw DER-encoded P-256 public key at registration
// and sends detached client-data JSON, authenticator data, and (for
// login) a DER ECDSA signature. Known limitation: the authenticator's
// signature counter is parsed past but not tracked, so cloned
// authenticators are not detected.
package passkey

import "time"

// Kind distinguishes the two ceremony types.
type Kind string

const (
	KindRegistration Kind = "registration"
	KindLogin        Kind = "login"
)

// Ceremony is the server-side half of an in-flight ceremony. It is
// embedded in the sealed session cookie and never persisted; it must be
// consumed exactly once by the matching finish call.
type Ceremony struct {
	Challenge []byte    `json:"challenge"`
	Kind      Kind      `json:"kind"`
	IssuedAt  time.Time `json:"issuedAt"`
}

// Expired reports whether the ceremony is older than ttl at time now.
func (c Ceremony) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.IssuedAt) > ttl
}
