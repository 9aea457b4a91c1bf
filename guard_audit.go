package adminGate

import (
	"context"
	"errors"
)

const (
	auditEventSessionCreated   = "session_created"
	auditEventSessionDestroyed = "session_destroyed"
	auditEventSessionExpired   = "session_expired"
	auditEventAuthRejected     = "auth_rejected"
	auditEventCSRFRejected     = "csrf_rejected"
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventLoginRateLimited = "login_rate_limited"
)

// AuditErrorCode is the stable error label written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrUnauthenticated       AuditErrorCode = "unauthenticated"
	auditErrSessionExpired        AuditErrorCode = "session_expired"
	auditErrCSRFMismatch          AuditErrorCode = "csrf_mismatch"
	auditErrInvalidCredentials    AuditErrorCode = "invalid_credentials"
	auditErrRateLimited           AuditErrorCode = "rate_limited"
	auditErrSessionCreationFailed AuditErrorCode = "session_creation_failed"
	auditErrSessionInvalidation   AuditErrorCode = "session_invalidation_failed"
	auditErrUnavailable           AuditErrorCode = "backend_unavailable"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func (g *Guard) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	principal Principal,
	err error,
	metadataBuilder func() map[string]string,
) {
	if g == nil || g.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: g.now().UTC(),
		EventType: eventType,
		AdminID:   principal.ID,
		Username:  principal.Username,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	g.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrCSRFMismatch):
		return auditErrCSRFMismatch
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAdminNotFound):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreationFailed
	case errors.Is(err, ErrSessionInvalidationFailed):
		return auditErrSessionInvalidation
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
