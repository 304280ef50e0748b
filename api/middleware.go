package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jdwb/yawp/session"
)

type contextKey int

const sessionKey contextKey = iota

const sessionCookieName = "yawp_session"

const (
	maxAuthBodySize = 64 << 10
	maxNoteBodySize = 64 << 10
)

// sessionFromRequest unseals the caller's session cookie. A missing or
// invalid cookie yields a fresh anonymous session, indistinguishable
// from the tampered case.
func (a *API) sessionFromRequest(r *http.Request) session.State {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return a.codec.Fresh()
	}
	return a.codec.Unseal(cookie.Value)
}

// writeSession reseals state into the outgoing cookie. Every ceremony
// step calls this, success or failure, so the pending ceremony is
// always consumed.
func (a *API) writeSession(w http.ResponseWriter, r *http.Request, state session.State) bool {
	sealed, err := a.codec.Seal(state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sealed,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteStrictMode,
		Expires:  state.ExpiresAt,
	})
	return true
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// RequireAuth guards administrative routes. The session state is stored
// on the request context for the handler.
func (a *API) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := a.sessionFromRequest(r)
		if !state.Authenticated {
			mapError(w, session.ErrUnauthenticated)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, state)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}

// parseJSON reads and decodes a JSON request body of at most limit
// bytes. It writes nothing; callers decide how to answer a bad body.
func parseJSON[T any](w http.ResponseWriter, r *http.Request, limit int64) (T, error) {
	var req T
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}

// decodeJSON is parseJSON with the 400 response written on failure.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, limit int64) (T, bool) {
	req, err := parseJSON[T](w, r, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return req, false
	}
	return req, true
}
