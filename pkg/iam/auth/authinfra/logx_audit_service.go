package authinfra

import (
	"context"

	"github.com/gestionsaas/identity/pkg/logx"
)

// LogxAuditService records security events through structured logging.
type LogxAuditService struct{}

// NewLogxAuditService creates a new log-backed audit service.
func NewLogxAuditService() *LogxAuditService {
	return &LogxAuditService{}
}

func (s *LogxAuditService) LoginAttempt(_ context.Context, projectID, tenantSlug, email string, success bool) {
	logx.WithFields(logx.Fields{
		"audit_event": "login_attempt",
		"project_id":  projectID,
		"tenant_slug": tenantSlug,
		"email":       email,
		"success":     success,
	}).Info("audit: login attempt")
}

func (s *LogxAuditService) TokenRefresh(_ context.Context, projectID, userID string, success bool) {
	logx.WithFields(logx.Fields{
		"audit_event": "token_refresh",
		"project_id":  projectID,
		"user_id":     userID,
		"success":     success,
	}).Info("audit: token refresh")
}

func (s *LogxAuditService) InvitationAccepted(_ context.Context, projectID, tenantID, email string) {
	logx.WithFields(logx.Fields{
		"audit_event": "invitation_accepted",
		"project_id":  projectID,
		"tenant_id":   tenantID,
		"email":       email,
	}).Info("audit: invitation accepted")
}
