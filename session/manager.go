package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jdwb/yawp/passkey"
	"github.com/jdwb/yawp/storage"
)

// ErrUnauthenticated is returned by route guards for administrative
// actions attempted by a session that never completed a login.
var ErrUnauthenticated = errors.New("session not authenticated")

// Manager drives the session state machine: anonymous, ceremony
// pending, authenticated. Every method takes the caller's current state
// and returns the next one; the caller reseals whatever comes back into
// the outgoing cookie, success or failure.
type Manager struct {
	issuer   *passkey.Issuer
	verifier *passkey.Verifier
}

// NewManager returns a Manager driving ceremonies through the given
// issuer and verifier.
func NewManager(issuer *passkey.Issuer, verifier *passkey.Verifier) *Manager {
	return &Manager{issuer: issuer, verifier: verifier}
}

// StartRegistration stores a fresh registration ceremony in the
// session, replacing any ceremony already pending.
func (m *Manager) StartRegistration(ctx context.Context, state State) (State, passkey.RegistrationOptions, error) {
	ceremony, options, err := m.issuer.StartRegistration(ctx)
	if err != nil {
		return state, passkey.RegistrationOptions{}, err
	}
	state.Pending = &ceremony
	return state, options, nil
}

// StartLogin stores a fresh login ceremony in the session, replacing
// any ceremony already pending.
func (m *Manager) StartLogin(ctx context.Context, state State) (State, passkey.LoginOptions, error) {
	ceremony, options, err := m.issuer.StartLogin(ctx)
	if err != nil {
		return state, passkey.LoginOptions{}, err
	}
	state.Pending = &ceremony
	return state, options, nil
}

// FinishRegistration verifies the registration response against the
// pending ceremony and persists the credential. Registration does not
// authenticate the session; the caller still logs in with the new
// credential.
func (m *Manager) FinishRegistration(ctx context.Context, state State, resp passkey.RegistrationResponse) (State, storage.Credential, error) {
	ceremony, state, err := consumePending(state, passkey.KindRegistration)
	if err != nil {
		return state, storage.Credential{}, err
	}
	credential, err := m.verifier.FinishRegistration(ctx, ceremony, state.Authenticated, resp)
	if err != nil {
		return state, storage.Credential{}, err
	}
	return state, credential, nil
}

// FinishLogin verifies the login response against the pending ceremony
// and, on success, marks the session authenticated.
func (m *Manager) FinishLogin(ctx context.Context, state State, resp passkey.LoginResponse) (State, error) {
	ceremony, state, err := consumePending(state, passkey.KindLogin)
	if err != nil {
		return state, err
	}
	if err := m.verifier.FinishLogin(ctx, ceremony, resp); err != nil {
		return state, err
	}
	state.Authenticated = true
	return state, nil
}

// consumePending removes the pending ceremony from the session before
// verification runs, so a challenge can never be retried against. Kind
// mismatches count as protocol violations.
func consumePending(state State, kind passkey.Kind) (passkey.Ceremony, State, error) {
	pending := state.Pending
	state.Pending = nil
	if pending == nil {
		return passkey.Ceremony{}, state, fmt.Errorf("%w: no pending ceremony", passkey.ErrClientProtocol)
	}
	if pending.Kind != kind {
		return passkey.Ceremony{}, state, fmt.Errorf("%w: pending ceremony is %s, not %s", passkey.ErrClientProtocol, pending.Kind, kind)
	}
	return *pending, state, nil
}
