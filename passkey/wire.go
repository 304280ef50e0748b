package passkey

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Base64Bytes is a byte slice that marshals to standard base64 and
// unmarshals from standard or URL-safe base64, padded or unpadded.
// Browser WebAuthn shims are inconsistent about which alphabet they
// emit, so decoding is deliberately lenient about encoding variants
// while remaining strict about content.
type Base64Bytes []byte

func (b Base64Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(b))
}

func (b *Base64Bytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrClientProtocol, err)
	}
	decoded, err := decodeBase64Loose(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrClientProtocol, err)
	}
	*b = decoded
	return nil
}

func decodeBase64Loose(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("invalid base64 value")
}

// RegistrationOptions is the client-facing payload for starting a
// registration ceremony.
type RegistrationOptions struct {
	Challenge  Base64Bytes   `json:"challengeBase64"`
	RPID       string        `json:"rpId"`
	UserID     Base64Bytes   `json:"userIdBase64"`
	Username   string        `json:"username"`
	PasskeyIDs []Base64Bytes `json:"passkeyIdsBase64"`
}

// LoginOptions is the client-facing payload for starting a login ceremony.
type LoginOptions struct {
	Challenge  Base64Bytes   `json:"challengeBase64"`
	RPID       string        `json:"rpId"`
	PasskeyIDs []Base64Bytes `json:"passkeyIdsBase64"`
}

// RegistrationResponse carries the client's answer to a registration
// ceremony. The public key is the raw DER-encoded SubjectPublicKeyInfo
// extracted by the client platform.
type RegistrationResponse struct {
	ClientDataJSON    Base64Bytes `json:"clientDataJSONBase64"`
	AuthenticatorData Base64Bytes `json:"authenticatorDataBase64"`
	PublicKey         Base64Bytes `json:"publicKeyBase64"`
}

// LoginResponse carries the client's answer to a login ceremony.
type LoginResponse struct {
	RawID             Base64Bytes `json:"rawIdBase64"`
	ClientDataJSON    Base64Bytes `json:"clientDataJSONBase64"`
	AuthenticatorData Base64Bytes `json:"authenticatorDataBase64"`
	Signature         Base64Bytes `json:"signatureBase64"`
}
