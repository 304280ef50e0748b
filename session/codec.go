package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/awnumar/memguard"

	"github.com/jdwb/yawp/internal/util"
)

// DefaultTTL is how long a session cookie stays valid without a new
// login.
const DefaultTTL = 24 * time.Hour

// sealInfo binds derived cookie keys to this purpose. Bumping the
// version invalidates every outstanding cookie.
var sealInfo = []byte("yawp:cookie-seal:v1")

// sealAAD is authenticated alongside the ciphertext so a sealed blob
// cannot be replayed in another AEAD context.
var sealAAD = []byte("yawp:session")

// Codec seals session state into an opaque cookie value and opens it
// back. The sealing key is derived once from the master key and held in
// locked memory for the codec's lifetime.
type Codec struct {
	key *memguard.LockedBuffer
	ttl time.Duration
	now func() time.Time
}

// NewCodec derives the cookie sealing key from masterKey and returns a
// Codec issuing sessions with the given ttl. masterKey must be
// util.AESKeySize bytes; the caller keeps ownership of it. A ttl of 0
// selects DefaultTTL.
func NewCodec(masterKey []byte, ttl time.Duration) (*Codec, error) {
	if len(masterKey) != util.AESKeySize {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", util.AESKeySize, len(masterKey))
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	derived, err := util.HKDF(masterKey, nil, sealInfo)
	if err != nil {
		return nil, fmt.Errorf("deriving cookie key: %w", err)
	}
	// NewBufferFromBytes wipes derived.
	return &Codec{
		key: memguard.NewBufferFromBytes(derived),
		ttl: ttl,
		now: time.Now,
	}, nil
}

// Close destroys the sealing key. The codec is unusable afterwards.
func (c *Codec) Close() {
	c.key.Destroy()
}

// Fresh returns a new anonymous session.
func (c *Codec) Fresh() State {
	return NewState(c.now().UTC(), c.ttl)
}

// Seal encodes state into the opaque cookie value.
func (c *Codec) Seal(state State) (string, error) {
	plain, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encoding session state: %w", err)
	}
	sealed, err := util.SealAES(plain, c.key.Bytes(), sealAAD)
	util.WipeBytes(plain)
	if err != nil {
		return "", fmt.Errorf("sealing session state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Unseal decodes a cookie value back into session state. It fails
// closed: any malformed, tampered, missealed, or expired value yields a
// fresh anonymous session, never an error. An attacker who can flip
// cookie bits gains nothing beyond logging themselves out.
func (c *Codec) Unseal(value string) State {
	sealed, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return c.Fresh()
	}
	plain, err := util.OpenAES(sealed, c.key.Bytes(), sealAAD)
	if err != nil {
		return c.Fresh()
	}
	var state State
	err = json.Unmarshal(plain, &state)
	util.WipeBytes(plain)
	if err != nil || state.ID == "" || state.Expired(c.now().UTC()) {
		return c.Fresh()
	}
	return state
}
