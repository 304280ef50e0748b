package passkey

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
)

// Authenticator data is an externally defined byte layout, decoded at
// fixed offsets:
//
//	[0:32]  SHA-256 hash of the relying party identifier
//	[32]    flags (bit 0 = user present)
//	[33:37] signature counter (big-endian, not tracked; see package doc)
//	[37:53] AAGUID            } present only when the record carries
//	[53:55] credential id len } an attested credential
//	[55:..] credential id     }
const (
	authDataMinLen     = 37
	flagUserPresent    = 0x01
	credentialIDOffset = 55
)

// parseAuthenticatorData validates the RP ID hash and user-presence flag
// and returns the attested credential id, or nil when the record carries
// none (the usual case for login assertions).
func parseAuthenticatorData(raw []byte, rpID string) ([]byte, error) {
	if len(raw) < authDataMinLen {
		return nil, fmt.Errorf("%w: authenticator data too short (%d bytes)", ErrClientProtocol, len(raw))
	}

	rpHash := sha256.Sum256([]byte(rpID))
	if subtle.ConstantTimeCompare(rpHash[:], raw[:32]) != 1 {
		return nil, ErrRPIDMismatch
	}

	if raw[32]&flagUserPresent == 0 {
		return nil, fmt.Errorf("%w: user presence flag not set", ErrClientProtocol)
	}

	if len(raw) <= credentialIDOffset {
		return nil, nil
	}
	idLen := int(binary.BigEndian.Uint16(raw[53:55]))
	if len(raw) < credentialIDOffset+idLen {
		return nil, fmt.Errorf("%w: credential id length %d exceeds record", ErrClientProtocol, idLen)
	}
	id := make([]byte, idLen)
	copy(id, raw[credentialIDOffset:credentialIDOffset+idLen])
	return id, nil
}
