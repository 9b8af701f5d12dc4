package dashauth

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
)

const (
	auditEventLoginSuccess      = "login_success"
	auditEventLoginFailure      = "login_failure"
	auditEventLogout            = "logout"
	auditEventSessionExpired    = "session_expired"
	auditEventSessionMalformed  = "session_malformed"
	auditEventCredentialFailure = "credential_store_failure"
)

// AuditErrorCode is the stable error label carried by failed audit events.
type AuditErrorCode string

const (
	auditErrRejected      AuditErrorCode = "rejected"
	auditErrNetwork       AuditErrorCode = "network_error"
	auditErrUnknown       AuditErrorCode = "unknown_error"
	auditErrStorage       AuditErrorCode = "storage_failure"
	auditErrTokenExpired  AuditErrorCode = "token_expired"
	auditErrTokenInvalid  AuditErrorCode = "token_invalid"
	auditErrInternalError AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID int64,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: e.now().UTC(),
		EventType: eventType,
		Namespace: e.store.Namespace(),
		RequestID: requestIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if userID != 0 {
		event.UserID = strconv.FormatInt(userID, 10)
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	var authErr *AuthError
	switch {
	case errors.Is(err, ErrStorage):
		return auditErrStorage
	case errors.Is(err, errTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, errTokenInvalid):
		return auditErrTokenInvalid
	case errors.As(err, &authErr):
		switch authErr.Name {
		case ErrorNameNetwork:
			return auditErrNetwork
		case ErrorNameUnknown:
			return auditErrUnknown
		default:
			return auditErrRejected
		}
	default:
		return auditErrInternalError
	}
}
