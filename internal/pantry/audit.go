package pantry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/appetiteclub/apt"
)

// AuditEntry represents a single audit log entry for a user action.
type AuditEntry struct {
	UserID    uint            `json:"user_id"`
	Action    string          `json:"action"`
	Target    string          `json:"target"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
}

// AuditLogger records who did what: sign-ins, registrations, role and
// assignment changes, and generated documents.
type AuditLogger struct {
	logger apt.Logger
}

func NewAuditLogger(logger apt.Logger) *AuditLogger {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &AuditLogger{logger: logger}
}

func (a *AuditLogger) Log(ctx context.Context, entry AuditEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	a.logger.Info("audit",
		"user_id", entry.UserID,
		"action", entry.Action,
		"target", entry.Target,
		"payload", string(entry.Payload),
		"success", entry.Success,
		"timestamp", entry.Timestamp.Format(time.RFC3339),
		"error", entry.Error,
	)
}

func (a *AuditLogger) LogLogin(ctx context.Context, userID uint, username string, success bool) {
	entry := AuditEntry{
		UserID:  userID,
		Action:  "login",
		Target:  username,
		Success: success,
	}
	if !success {
		entry.Error = "invalid credentials"
	}
	a.Log(ctx, entry)
}

func (a *AuditLogger) LogLogout(ctx context.Context, userID uint) {
	a.Log(ctx, AuditEntry{
		UserID:  userID,
		Action:  "logout",
		Target:  "auth",
		Success: true,
	})
}

func (a *AuditLogger) LogRegistration(ctx context.Context, userID uint, username string) {
	a.Log(ctx, AuditEntry{
		UserID:  userID,
		Action:  "register",
		Target:  username,
		Success: true,
	})
}

func (a *AuditLogger) LogRoleChange(ctx context.Context, actorID, userID uint, role string) {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id": userID,
		"role":    role,
	})
	a.Log(ctx, AuditEntry{
		UserID:  actorID,
		Action:  "set-role",
		Target:  "user",
		Payload: payload,
		Success: true,
	})
}

func (a *AuditLogger) LogAssignments(ctx context.Context, actorID, userID uint, locationIDs []uint) {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":      userID,
		"location_ids": locationIDs,
	})
	a.Log(ctx, AuditEntry{
		UserID:  actorID,
		Action:  "assign-inventory",
		Target:  "user",
		Payload: payload,
		Success: true,
	})
}

func (a *AuditLogger) LogExport(ctx context.Context, userID uint, kind, fileName string, rows int) {
	payload, _ := json.Marshal(map[string]interface{}{
		"file": fileName,
		"rows": rows,
	})
	a.Log(ctx, AuditEntry{
		UserID:  userID,
		Action:  "export",
		Target:  kind,
		Payload: payload,
		Success: true,
	})
}
