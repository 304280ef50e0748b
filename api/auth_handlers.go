package api

import (
	"net/http"

	"github.com/jdwb/yawp/passkey"
	"github.com/jdwb/yawp/session"
)

// rejectFinish answers a finish call whose body could not be decoded.
// The pending ceremony is consumed all the same, so the challenge
// cannot be replayed after a malformed attempt.
func (a *API) rejectFinish(w http.ResponseWriter, r *http.Request, state session.State, event AuditEvent, err error) {
	state.Pending = nil
	if !a.writeSession(w, r, state) {
		return
	}
	a.audit.logFailure(event, r, err)
	writeError(w, http.StatusBadRequest, "malformed request body")
}

// RegisterStart handles POST /register/start. It issues a fresh
// registration challenge and stores the pending ceremony in the sealed
// cookie.
func (a *API) RegisterStart(w http.ResponseWriter, r *http.Request) {
	state := a.sessionFromRequest(r)

	state, options, err := a.manager.StartRegistration(r.Context(), state)
	if err != nil {
		a.audit.logFailure(AuditRegisterFailure, r, err)
		mapError(w, err)
		return
	}
	if !a.writeSession(w, r, state) {
		return
	}

	a.audit.log(AuditRegisterStart, r)
	writeJSON(w, http.StatusOK, options)
}

// RegisterFinish handles POST /register/finish. The pending
// ceremony is consumed whatever the outcome; a failed attempt forces a
// fresh start.
func (a *API) RegisterFinish(w http.ResponseWriter, r *http.Request) {
	state := a.sessionFromRequest(r)

	req, err := parseJSON[passkey.RegistrationResponse](w, r, maxAuthBodySize)
	if err != nil {
		a.rejectFinish(w, r, state, AuditRegisterFailure, err)
		return
	}

	state, credential, err := a.manager.FinishRegistration(r.Context(), state, req)
	if !a.writeSession(w, r, state) {
		return
	}
	if err != nil {
		a.audit.logFailure(AuditRegisterFailure, r, err)
		mapError(w, err)
		return
	}

	a.audit.log(AuditRegisterSuccess, r, credentialAttr(credential.ID))
	writeJSON(w, http.StatusCreated, SessionResponse{Authenticated: state.Authenticated})
}

// LoginStart handles POST /login/start.
func (a *API) LoginStart(w http.ResponseWriter, r *http.Request) {
	state := a.sessionFromRequest(r)

	state, options, err := a.manager.StartLogin(r.Context(), state)
	if err != nil {
		a.audit.logFailure(AuditLoginFailure, r, err)
		mapError(w, err)
		return
	}
	if !a.writeSession(w, r, state) {
		return
	}

	a.audit.log(AuditLoginStart, r)
	writeJSON(w, http.StatusOK, options)
}

// LoginFinish handles POST /login/finish. On success the resealed
// cookie carries an authenticated session.
func (a *API) LoginFinish(w http.ResponseWriter, r *http.Request) {
	state := a.sessionFromRequest(r)

	req, err := parseJSON[passkey.LoginResponse](w, r, maxAuthBodySize)
	if err != nil {
		a.rejectFinish(w, r, state, AuditLoginFailure, err)
		return
	}

	state, err = a.manager.FinishLogin(r.Context(), state, req)
	if !a.writeSession(w, r, state) {
		return
	}
	if err != nil {
		a.audit.logFailure(AuditLoginFailure, r, err)
		mapError(w, err)
		return
	}

	a.audit.log(AuditLoginSuccess, r, credentialAttr(req.RawID))
	writeJSON(w, http.StatusCreated, SessionResponse{Authenticated: true})
}

// Logout handles POST /logout. The cookie is cleared outright; the
// next request starts anonymous.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, r)
	a.audit.log(AuditLogout, r)
	writeJSON(w, http.StatusOK, SessionResponse{Authenticated: false})
}

// Session handles GET /session.
func (a *API) Session(w http.ResponseWriter, r *http.Request) {
	state := a.sessionFromRequest(r)
	writeJSON(w, http.StatusOK, SessionResponse{Authenticated: state.Authenticated})
}

// Health handles GET /health.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
