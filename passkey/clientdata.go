package passkey

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
)

// Ceremony type strings produced by the client platform.
const (
	ceremonyTypeCreate = "webauthn.create"
	ceremonyTypeGet    = "webauthn.get"
)

// collectedClientData is the JSON document the client platform produces
// describing the ceremony. Only the fields the server validates are
// decoded; everything else is attacker-controlled noise.
type collectedClientData struct {
	Type        string `json:"type"`
	Challenge   string `json:"challenge"`
	Origin      string `json:"origin"`
	CrossOrigin *bool  `json:"crossOrigin"`
}

// validateClientData parses raw client-data JSON and checks the ceremony
// type, challenge, and origin. Challenge comparison is constant-time and
// byte-exact after base64 decoding.
func validateClientData(raw []byte, wantType string, wantChallenge []byte, wantOrigin string) error {
	var cd collectedClientData
	if err := json.Unmarshal(raw, &cd); err != nil {
		return fmt.Errorf("%w: %v", ErrClientProtocol, err)
	}

	if cd.Type != wantType {
		return fmt.Errorf("%w: unexpected ceremony type %q", ErrClientProtocol, cd.Type)
	}

	challenge, err := decodeBase64Loose(cd.Challenge)
	if err != nil {
		return fmt.Errorf("%w: challenge is not base64", ErrClientProtocol)
	}
	if subtle.ConstantTimeCompare(challenge, wantChallenge) != 1 {
		return ErrChallengeMismatch
	}

	if cd.CrossOrigin != nil && *cd.CrossOrigin {
		return fmt.Errorf("%w: cross-origin ceremony", ErrOriginMismatch)
	}
	if cd.Origin != wantOrigin {
		return fmt.Errorf("%w: %q", ErrOriginMismatch, cd.Origin)
	}

	return nil
}
