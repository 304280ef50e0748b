package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jdwb/yawp/internal/util"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditRegisterStart   AuditEvent = "register_start"
	AuditRegisterSuccess AuditEvent = "register_success"
	AuditRegisterFailure AuditEvent = "register_failure"
	AuditLoginStart      AuditEvent = "login_start"
	AuditLoginSuccess    AuditEvent = "login_success"
	AuditLoginFailure    AuditEvent = "login_failure"
	AuditLogout          AuditEvent = "logout"
	AuditNoteCreated     AuditEvent = "note_created"
)

// auditLogger wraps slog.Logger for structured security audit logging.
type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
}

// logFailure records a failed ceremony step with the full error detail
// that the HTTP response deliberately omits.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, err error) {
	al.log(event, r, slog.String("error", err.Error()))
}

// credentialAttr identifies a credential in the log by its hex id. The
// id is public material, safe to record.
func credentialAttr(id []byte) slog.Attr {
	return slog.String("credential_id", util.HexEncode(id))
}
