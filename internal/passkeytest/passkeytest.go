// Package passkeytest simulates a WebAuthn authenticator for tests: it
// generates P-256 key pairs and produces the client data, authenticator
// data, and assertion signatures a real platform would.
package passkeytest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"
)

// Authenticator is a software stand-in for a platform authenticator
// holding a single resident credential.
type Authenticator struct {
	Key          *ecdsa.PrivateKey
	CredentialID []byte
}

// New creates an authenticator with a fresh P-256 key pair and a random
// 16-byte credential id.
func New(t *testing.T) *Authenticator {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating P-256 key: %v", err)
	}
	id := make([]byte, 16)
	if _, err := rand.Read(id); err != nil {
		t.Fatalf("generating credential id: %v", err)
	}
	return &Authenticator{Key: key, CredentialID: id}
}

// PublicKeyDER returns the credential public key as DER-encoded
// SubjectPublicKeyInfo bytes, the way the client platform extracts it.
func (a *Authenticator) PublicKeyDER(t *testing.T) []byte {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&a.Key.PublicKey)
	if err != nil {
		t.Fatalf("marshaling public key: %v", err)
	}
	return der
}

// ClientData builds a collected-client-data JSON document.
func ClientData(t *testing.T, ceremonyType string, challenge []byte, origin string) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"type":        ceremonyType,
		"challenge":   base64.RawURLEncoding.EncodeToString(challenge),
		"origin":      origin,
		"crossOrigin": false,
	})
	if err != nil {
		t.Fatalf("marshaling client data: %v", err)
	}
	return raw
}

// AttestationData builds registration authenticator data for rpID
// carrying the authenticator's credential id at the attested-credential
// offsets (AAGUID zeroed, COSE key omitted — the server never reads past
// the credential id).
func (a *Authenticator) AttestationData(rpID string) []byte {
	data := baseAuthData(rpID)
	data = append(data, make([]byte, 16)...) // AAGUID
	data = binary.BigEndian.AppendUint16(data, uint16(len(a.CredentialID)))
	data = append(data, a.CredentialID...)
	return data
}

// AssertionData builds login authenticator data for rpID: RP hash,
// flags, and counter only.
func AssertionData(rpID string) []byte {
	return baseAuthData(rpID)
}

func baseAuthData(rpID string) []byte {
	rpHash := sha256.Sum256([]byte(rpID))
	data := make([]byte, 0, 37)
	data = append(data, rpHash[:]...)
	data = append(data, 0x01)                     // user present
	data = binary.BigEndian.AppendUint32(data, 1) // signature counter
	return data
}

// Sign produces the DER ECDSA assertion signature over
// authenticatorData || SHA-256(clientDataJSON).
func (a *Authenticator) Sign(t *testing.T, authenticatorData, clientDataJSON []byte) []byte {
	t.Helper()
	clientDataHash := sha256.Sum256(clientDataJSON)
	signed := append(append([]byte{}, authenticatorData...), clientDataHash[:]...)
	digest := sha256.Sum256(signed)
	sig, err := ecdsa.SignASN1(rand.Reader, a.Key, digest[:])
	if err != nil {
		t.Fatalf("signing assertion: %v", err)
	}
	return sig
}
