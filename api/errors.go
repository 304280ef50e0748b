package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jdwb/yawp/passkey"
	"github.com/jdwb/yawp/session"
	"github.com/jdwb/yawp/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// mapError translates a ceremony or storage failure into its HTTP
// status. Bodies carry a short stable message per error class; the full
// error stays in the server log so responses leak nothing an attacker
// could steer by.
func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, passkey.ErrClientProtocol):
		writeError(w, http.StatusBadRequest, "malformed ceremony response")
	case errors.Is(err, passkey.ErrChallengeMismatch):
		writeError(w, http.StatusBadRequest, "challenge mismatch")
	case errors.Is(err, passkey.ErrChallengeExpired):
		writeError(w, http.StatusBadRequest, "challenge expired")
	case errors.Is(err, passkey.ErrOriginMismatch):
		writeError(w, http.StatusBadRequest, "origin mismatch")
	case errors.Is(err, passkey.ErrRPIDMismatch):
		writeError(w, http.StatusBadRequest, "relying party mismatch")
	case errors.Is(err, passkey.ErrPublicKeyInvalid):
		writeError(w, http.StatusBadRequest, "invalid public key")
	case errors.Is(err, passkey.ErrUnknownCredential):
		writeError(w, http.StatusUnauthorized, "authentication failed")
	case errors.Is(err, passkey.ErrSignatureInvalid):
		writeError(w, http.StatusUnauthorized, "authentication failed")
	case errors.Is(err, session.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, passkey.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "already registered")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
