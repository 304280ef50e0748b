package passkey

import (
	"context"
	"fmt"
	"time"

	"github.com/jdwb/yawp/internal/util"
	"github.com/jdwb/yawp/storage"
)

// challengeSize is the length of generated ceremony challenges. The
// protocol requires at least 16 bytes; 32 matches the client platform's
// own output.
const challengeSize = 32

// Issuer creates ceremony challenges and the client-facing options
// payloads. It performs no verification and no persistence.
type Issuer struct {
	store    storage.CredentialStore
	rpID     string
	username string
	userID   []byte
	now      func() time.Time
}

// NewIssuer returns an Issuer for the given relying party. username and
// userID identify the single admin to the client platform.
func NewIssuer(store storage.CredentialStore, rpID, username string, userID []byte) *Issuer {
	return &Issuer{
		store:    store,
		rpID:     rpID,
		username: username,
		userID:   userID,
		now:      time.Now,
	}
}

// StartRegistration issues a fresh registration ceremony. The returned
// options enumerate existing credential ids so the client can exclude
// already-registered authenticators.
func (i *Issuer) StartRegistration(ctx context.Context) (Ceremony, RegistrationOptions, error) {
	ceremony, ids, err := i.start(ctx, KindRegistration)
	if err != nil {
		return Ceremony{}, RegistrationOptions{}, err
	}
	return ceremony, RegistrationOptions{
		Challenge:  Base64Bytes(ceremony.Challenge),
		RPID:       i.rpID,
		UserID:     Base64Bytes(i.userID),
		Username:   i.username,
		PasskeyIDs: ids,
	}, nil
}

// StartLogin issues a fresh login ceremony. The returned options
// enumerate existing credential ids so the client can select one.
func (i *Issuer) StartLogin(ctx context.Context) (Ceremony, LoginOptions, error) {
	ceremony, ids, err := i.start(ctx, KindLogin)
	if err != nil {
		return Ceremony{}, LoginOptions{}, err
	}
	return ceremony, LoginOptions{
		Challenge:  Base64Bytes(ceremony.Challenge),
		RPID:       i.rpID,
		PasskeyIDs: ids,
	}, nil
}

func (i *Issuer) start(ctx context.Context, kind Kind) (Ceremony, []Base64Bytes, error) {
	challenge, err := util.RandomBytes(challengeSize)
	if err != nil {
		return Ceremony{}, nil, fmt.Errorf("generating challenge: %w", err)
	}

	credentials, err := i.store.List(ctx)
	if err != nil {
		return Ceremony{}, nil, fmt.Errorf("listing credentials: %w", err)
	}
	ids := make([]Base64Bytes, 0, len(credentials))
	for _, c := range credentials {
		ids = append(ids, Base64Bytes(c.ID))
	}

	return Ceremony{
		Challenge: challenge,
		Kind:      kind,
		IssuedAt:  i.now().UTC(),
	}, ids, nil
}
