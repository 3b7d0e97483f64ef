package route

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/handler"
	"github.com/noah-isme/sma-substitute-api/internal/middleware"
	"github.com/noah-isme/sma-substitute-api/internal/models"
)

// Handlers bundles every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth         *handler.AuthHandler
	Schedule     *handler.ScheduleHandler
	Substitution *handler.SubstitutionHandler
	History      *handler.HistoryHandler
	Backup       *handler.BackupHandler
	Behavior     *handler.BehaviorHandler
	Metrics      *handler.MetricsHandler
}

// Dependencies are the cross-cutting collaborators used by route middleware.
type Dependencies struct {
	Tokens middleware.TokenValidator
	Audit  middleware.AuditRecorder
	Logger *zap.Logger
}

// Register mounts probes, metrics and the versioned API on r.
func Register(r *gin.Engine, prefix string, h Handlers, deps Dependencies) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/backups/:token", h.Backup.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(deps.Tokens))
	authed.GET("/auth/me", h.Auth.Me)
	authed.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), h.Metrics.Summary)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	admin := middleware.RequireRoles(models.RoleAdmin)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, deps.Logger, action, resource)
	}

	schedule := authed.Group("/schedule")
	schedule.GET("", staff, h.Schedule.List)
	schedule.GET("/export", staff, h.Schedule.Export)
	schedule.GET("/pivot", staff, h.Schedule.Pivot)
	schedule.GET("/teachers", staff, h.Schedule.Teachers)
	schedule.GET("/classes", staff, h.Schedule.Classes)
	schedule.POST("", admin, audit(models.AuditActionScheduleWrite, "schedule"), h.Schedule.Create)
	schedule.PUT("", admin, audit(models.AuditActionScheduleWrite, "schedule"), h.Schedule.Replace)
	schedule.DELETE("/:id", admin, audit(models.AuditActionScheduleWrite, "schedule"), h.Schedule.Delete)
	schedule.POST("/import", admin, audit(models.AuditActionScheduleImport, "schedule"), h.Schedule.Import)

	substitutions := authed.Group("/substitutions", admin)
	substitutions.POST("/proposals", h.Substitution.Propose)
	substitutions.GET("/drafts/:id", h.Substitution.Get)
	substitutions.PUT("/drafts/:id/assignments", h.Substitution.UpdateAssignments)
	substitutions.POST("/drafts/:id/validate", h.Substitution.Validate)
	substitutions.POST("/drafts/:id/commit", audit(models.AuditActionSubstitutionCommit, "substitution_draft"), h.Substitution.Commit)
	substitutions.GET("/drafts/:id/announcement", h.Substitution.Announcement)
	substitutions.POST("/drafts/:id/announcement/publish", h.Substitution.PublishAnnouncement)
	substitutions.GET("/drafts/:id/export.pdf", h.Substitution.ExportPDF)

	history := authed.Group("/history", admin)
	history.GET("/substitutions", h.History.ListSubstitutions)
	history.GET("/absences", h.History.ListAbsences)
	history.GET("/statistics", middleware.WithResponseMeta(), h.History.Statistics)
	history.DELETE("/dates/:date", audit(models.AuditActionHistoryDelete, "history"), h.History.DeleteDate)
	history.POST("/reset", audit(models.AuditActionHistoryReset, "history"), h.History.Reset)

	authed.POST("/backups", admin, audit(models.AuditActionBackupCreate, "backup"), h.Backup.Create)

	behavior := authed.Group("/behavior-reports", staff)
	behavior.GET("", h.Behavior.List)
	behavior.GET("/export", h.Behavior.Export)
	behavior.GET("/statistics", h.Behavior.Statistics)
	behavior.POST("", audit(models.AuditActionBehaviorWrite, "behavior_report"), h.Behavior.Create)
	behavior.DELETE("/:id", admin, audit(models.AuditActionBehaviorWrite, "behavior_report"), h.Behavior.Delete)
}
