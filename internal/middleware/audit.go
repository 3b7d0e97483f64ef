package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/models"
	"github.com/noah-isme/sma-substitute-api/pkg/middleware/requestid"
)

// AuditRecorder persists audit trail rows.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// auditedQuery lists query parameters that change what a write does.
var auditedQuery = []string{"mode", "format"}

// Audit writes an audit_logs row after a successful (< 400) request. The
// resource id is the :id or :date route param. Recording failures are logged
// and never change the response.
func Audit(repo AuditRecorder, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if repo == nil || c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if user := CurrentUser(c); user != nil {
			userID = &user.UserID
		}
		var resourceID *string
		for _, key := range []string{"id", "date"} {
			if v := c.Param(key); v != "" {
				resourceID = &v
				break
			}
		}

		entry := map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		}
		if reqID := requestid.Value(c); reqID != "" {
			entry["request_id"] = reqID
		}
		for _, key := range auditedQuery {
			if v := c.Query(key); v != "" {
				entry[key] = v
			}
		}
		body, _ := json.Marshal(entry)

		if err := repo.CreateAuditLog(c.Request.Context(), &models.AuditLog{
			UserID:     userID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		}); err != nil {
			logger.Warn("audit log failed", zap.String("action", action), zap.Error(err))
		}
	}
}
