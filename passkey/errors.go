package passkey

import "errors"

var (
	// ErrClientProtocol indicates a malformed ceremony payload: bad JSON,
	// bad base64, a truncated binary record, or a missing ceremony.
	ErrClientProtocol = errors.New("malformed ceremony payload")
	// ErrChallengeMismatch indicates the client-data challenge differs from
	// the pending ceremony's challenge.
	ErrChallengeMismatch = errors.New("challenge mismatch")
	// ErrChallengeExpired indicates the ceremony TTL elapsed before finish.
	ErrChallengeExpired = errors.New("challenge expired")
	// ErrOriginMismatch indicates the client-data origin differs from the
	// configured origin, or the request was cross-origin.
	ErrOriginMismatch = errors.New("origin mismatch")
	// ErrRPIDMismatch indicates the authenticator-data RP ID hash differs
	// from the configured relying party identifier's hash.
	ErrRPIDMismatch = errors.New("relying party id mismatch")
	// ErrUnknownCredential indicates no stored credential matches the
	// asserted credential id.
	ErrUnknownCredential = errors.New("unknown credential")
	// ErrSignatureInvalid indicates the assertion signature did not verify
	// under the stored public key.
	ErrSignatureInvalid = errors.New("signature invalid")
	// ErrPublicKeyInvalid indicates the registered public key is not a
	// valid P-256 key.
	ErrPublicKeyInvalid = errors.New("public key invalid")
	// ErrAlreadyRegistered indicates a credential already exists and the
	// caller is not authenticated to add another.
	ErrAlreadyRegistered = errors.New("a credential is already registered")
)
