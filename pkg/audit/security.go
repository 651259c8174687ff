// Package audit provides security audit logging for SIEM consumption.
// Account events are logged as structured JSON under the "security_audit"
// logger so they can be filtered and alerted on separately from request logs.
package audit

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	EventLoginSuccess SecurityEventType = "login_success"
	// EventLoginFailure is logged for a rejected credential login.
	EventLoginFailure SecurityEventType = "login_failure"
	EventRegistration SecurityEventType = "registration"
	// EventRegistrationConflict is logged when an email is already taken.
	// Repeated conflicts from one client suggest account enumeration.
	EventRegistrationConflict SecurityEventType = "registration_conflict"
	EventLogout               SecurityEventType = "logout"
)

// Severity levels.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// SecurityEvent represents an auditable security event.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Email     string            `json:"email,omitempty"` // masked
	ClientIP  string            `json:"client_ip,omitempty"`
	Severity  string            `json:"severity"`
}

// SecurityAuditor logs account security events.
type SecurityAuditor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit"), now: time.Now}
}

// LogLoginSuccess records a successful credential login.
func (a *SecurityAuditor) LogLoginSuccess(r *http.Request, userID uuid.UUID, email string) {
	a.log(r, EventLoginSuccess, SeverityInfo, userID, email, "Login succeeded")
}

// LogLoginFailure records a rejected credential login. No user id is known.
func (a *SecurityAuditor) LogLoginFailure(r *http.Request, email string) {
	a.log(r, EventLoginFailure, SeverityWarning, uuid.Nil, email, "Login failed")
}

// LogRegistration records a new account.
func (a *SecurityAuditor) LogRegistration(r *http.Request, userID uuid.UUID, email string) {
	a.log(r, EventRegistration, SeverityInfo, userID, email, "Account registered")
}

// LogRegistrationConflict records a registration for an email already in use.
func (a *SecurityAuditor) LogRegistrationConflict(r *http.Request, email string) {
	a.log(r, EventRegistrationConflict, SeverityWarning, uuid.Nil, email, "Registration rejected: email in use")
}

// LogLogout records a session logout.
func (a *SecurityAuditor) LogLogout(r *http.Request) {
	a.log(r, EventLogout, SeverityInfo, uuid.Nil, "", "Logged out")
}

func (a *SecurityAuditor) log(r *http.Request, eventType SecurityEventType, severity string, userID uuid.UUID, email, msg string) {
	event := SecurityEvent{
		Timestamp: a.now().UTC(),
		EventType: eventType,
		Email:     MaskEmail(email),
		ClientIP:  ClientIP(r),
		Severity:  severity,
	}
	if userID != uuid.Nil {
		event.UserID = userID.String()
	}

	// Marshaling a struct of strings cannot fail.
	eventJSON, _ := json.Marshal(event)

	fields := []zap.Field{
		zap.String("event_json", string(eventJSON)),
		zap.String("event_type", string(eventType)),
		zap.String("client_ip", event.ClientIP),
		zap.String("user_id", event.UserID),
		zap.String("severity", severity),
	}
	if severity == SeverityWarning {
		a.logger.Warn(msg, fields...)
		return
	}
	a.logger.Info(msg, fields...)
}

// MaskEmail keeps the first character of the local part and the domain:
// "ada@example.com" becomes "a***@example.com".
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}

// ClientIP returns the request's remote host without the port.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
