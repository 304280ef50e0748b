package passkey

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/jdwb/yawp/storage"
)

// DefaultCeremonyTTL bounds how long a finish call may trail its start.
// The cookie's own expiry is too coarse for this.
const DefaultCeremonyTTL = 5 * time.Minute

// Verifier validates ceremony responses against the configured relying
// party and the credential store.
type Verifier struct {
	store  storage.CredentialStore
	origin string
	rpID   string
	ttl    time.Duration
	now    func() time.Time
}

// NewVerifier returns a Verifier. origin is the exact base origin the
// client platform reports (scheme://host[:port]); rpID is the relying
// party identifier (the bare host). A ttl of 0 selects DefaultCeremonyTTL.
func NewVerifier(store storage.CredentialStore, origin, rpID string, ttl time.Duration) *Verifier {
	if ttl <= 0 {
		ttl = DefaultCeremonyTTL
	}
	return &Verifier{
		store:  store,
		origin: origin,
		rpID:   rpID,
		ttl:    ttl,
		now:    time.Now,
	}
}

// FinishRegistration validates a registration response against the
// pending ceremony and, on success, persists the new credential.
// authenticated reports whether the caller's session is already
// authenticated: once any credential exists, only an authenticated admin
// may add another.
func (v *Verifier) FinishRegistration(ctx context.Context, ceremony Ceremony, authenticated bool, resp RegistrationResponse) (storage.Credential, error) {
	now := v.now().UTC()
	if ceremony.Expired(now, v.ttl) {
		return storage.Credential{}, ErrChallengeExpired
	}

	if err := validateClientData(resp.ClientDataJSON, ceremonyTypeCreate, ceremony.Challenge, v.origin); err != nil {
		return storage.Credential{}, err
	}

	credentialID, err := parseAuthenticatorData(resp.AuthenticatorData, v.rpID)
	if err != nil {
		return storage.Credential{}, err
	}
	if credentialID == nil {
		return storage.Credential{}, fmt.Errorf("%w: no attested credential id", ErrClientProtocol)
	}

	if err := validatePublicKey(resp.PublicKey); err != nil {
		return storage.Credential{}, err
	}

	n, err := v.store.Count(ctx)
	if err != nil {
		return storage.Credential{}, fmt.Errorf("counting credentials: %w", err)
	}
	if n > 0 && !authenticated {
		return storage.Credential{}, ErrAlreadyRegistered
	}

	credential := storage.Credential{
		ID:        credentialID,
		PublicKey: resp.PublicKey,
		CreatedAt: now,
	}
	if err := v.store.Insert(ctx, credential); err != nil {
		if errors.Is(err, storage.ErrDuplicateID) {
			return storage.Credential{}, ErrAlreadyRegistered
		}
		return storage.Credential{}, fmt.Errorf("inserting credential: %w", err)
	}
	return credential, nil
}

// FinishLogin validates a login response against the pending ceremony
// and the stored credential's public key.
func (v *Verifier) FinishLogin(ctx context.Context, ceremony Ceremony, resp LoginResponse) error {
	now := v.now().UTC()
	if ceremony.Expired(now, v.ttl) {
		return ErrChallengeExpired
	}

	credential, err := v.store.FindByID(ctx, resp.RawID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUnknownCredential
		}
		return fmt.Errorf("finding credential: %w", err)
	}

	if err := validateClientData(resp.ClientDataJSON, ceremonyTypeGet, ceremony.Challenge, v.origin); err != nil {
		return err
	}

	if _, err := parseAuthenticatorData(resp.AuthenticatorData, v.rpID); err != nil {
		return err
	}

	publicKey, err := parsePublicKey(credential.PublicKey)
	if err != nil {
		return err
	}

	// The signed material is the raw authenticator-data bytes followed by
	// the SHA-256 hash of the raw client-data bytes, exactly as
	// transmitted.
	clientDataHash := sha256.Sum256(resp.ClientDataJSON)
	signed := make([]byte, 0, len(resp.AuthenticatorData)+len(clientDataHash))
	signed = append(signed, resp.AuthenticatorData...)
	signed = append(signed, clientDataHash[:]...)
	digest := sha256.Sum256(signed)

	if !ecdsa.VerifyASN1(publicKey, digest[:], resp.Signature) {
		return ErrSignatureInvalid
	}
	return nil
}

// parsePublicKey decodes DER-encoded SubjectPublicKeyInfo bytes as a
// P-256 ECDSA public key.
func parsePublicKey(der []byte) (*ecdsa.PublicKey, error) {
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPublicKeyInvalid, err)
	}
	publicKey, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an ECDSA key", ErrPublicKeyInvalid)
	}
	if publicKey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: unexpected curve %s", ErrPublicKeyInvalid, publicKey.Curve.Params().Name)
	}
	return publicKey, nil
}

func validatePublicKey(der []byte) error {
	_, err := parsePublicKey(der)
	return err
}
