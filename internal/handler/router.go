package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pgr-adp-api/internal/middleware"
	"github.com/noah-isme/pgr-adp-api/internal/repository"
	"github.com/noah-isme/pgr-adp-api/internal/service"
)

// Handlers bundles every HTTP handler the API mounts.
type Handlers struct {
	Auth          *AuthHandler
	Students      *StudentHandler
	Supervisors   *SupervisorHandler
	Registrations *RegistrationHandler
	Timelines     *TimelineHandler
	Appraisals    *AppraisalHandler
	Submissions   *SubmissionHandler
	Vivas         *VivaHandler
	Notifications *NotificationHandler
	Reports       *ReportHandler
	Users         *UserHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes mounts the API under prefix. Every route below the
// authenticated group requires a valid access token; role gating is applied
// per operation through the policy table.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService, policy middleware.Policy, audit *repository.UserRepository) {
	api := r.Group(prefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/register", middleware.JWT(auth), middleware.Require(policy, "users", "admin"), middleware.Audit(audit, "register", "users"), h.Auth.Register)
		authGroup.POST("/logout", middleware.JWT(auth), h.Auth.Logout)
		authGroup.POST("/change-password", middleware.JWT(auth), h.Auth.ChangePassword)
		authGroup.GET("/me", middleware.JWT(auth), h.Auth.Me)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(auth))

	students := secured.Group("/students")
	{
		students.GET("", h.Students.List)
		students.GET("/:studentNumber", h.Students.Get)
		students.GET("/:studentNumber/supervisors", h.Students.Supervisors)
		students.POST("", middleware.Require(policy, "students", "create"), h.Students.Create)
		students.PUT("/:studentNumber", middleware.Require(policy, "students", "update"), h.Students.Update)
		students.DELETE("/:studentNumber", middleware.Require(policy, "students", "delete"), middleware.Audit(audit, "delete", "students"), h.Students.Delete)
	}

	supervisors := secured.Group("/supervisors")
	{
		supervisors.GET("", h.Supervisors.List)
		supervisors.GET("/:id", h.Supervisors.Get)
		supervisors.GET("/:id/students", h.Supervisors.Assignments)
		supervisors.POST("", middleware.Require(policy, "supervisors", "create"), h.Supervisors.Create)
		supervisors.PUT("/:id", middleware.Require(policy, "supervisors", "update"), h.Supervisors.Update)
	}

	assignments := secured.Group("/student-supervisors")
	{
		assignments.POST("", middleware.Require(policy, "student-supervisors", "create"), h.Supervisors.Assign)
		assignments.PUT("/:id", middleware.Require(policy, "student-supervisors", "update"), h.Supervisors.UpdateAssignment)
		assignments.DELETE("/:id", middleware.Require(policy, "student-supervisors", "delete"), h.Supervisors.RemoveAssignment)
	}

	registrations := secured.Group("/registrations")
	{
		registrations.GET("", h.Registrations.List)
		registrations.GET("/:id", h.Registrations.Get)
		registrations.POST("", middleware.Require(policy, "registrations", "create"), h.Registrations.Create)
		registrations.PUT("/:id", middleware.Require(policy, "registrations", "update"), h.Registrations.Update)
		registrations.POST("/:id/request-extension", middleware.Require(policy, "registrations", "request-extension"), h.Registrations.RequestExtension)
		registrations.POST("/:id/approve-extension", middleware.Require(policy, "registrations", "approve-extension"), middleware.Audit(audit, "approve-extension", "registrations"), h.Registrations.ApproveExtension)
	}

	timelines := secured.Group("/timelines")
	{
		timelines.GET("", h.Timelines.List)
		timelines.GET("/:id", h.Timelines.Get)
		timelines.POST("", middleware.Require(policy, "timelines", "create"), h.Timelines.Create)
		timelines.PUT("/:id", middleware.Require(policy, "timelines", "update"), h.Timelines.Update)
		timelines.POST("/:id/complete", middleware.Require(policy, "timelines", "complete"), h.Timelines.Complete)
		timelines.DELETE("/:id", middleware.Require(policy, "timelines", "delete"), h.Timelines.Delete)
		timelines.POST("/sweep-overdue", middleware.Require(policy, "timelines", "create"), h.Timelines.SweepOverdue)
	}

	appraisals := secured.Group("/appraisals")
	{
		appraisals.GET("", h.Appraisals.List)
		appraisals.GET("/:id", h.Appraisals.Get)
		appraisals.POST("", middleware.Require(policy, "appraisals", "create"), h.Appraisals.Create)
		appraisals.POST("/:id/submit-student", h.Appraisals.SubmitStudent)
		appraisals.POST("/:id/submit-dos", middleware.Require(policy, "appraisals", "submit-dos"), h.Appraisals.SubmitDOS)
		appraisals.POST("/:id/review", middleware.Require(policy, "appraisals", "review"), h.Appraisals.Review)
		appraisals.POST("/:id/approve", middleware.Require(policy, "appraisals", "approve"), h.Appraisals.Approve)
	}

	submissions := secured.Group("/submissions")
	{
		submissions.GET("", h.Submissions.List)
		submissions.GET("/pending-review", middleware.Require(policy, "submissions", "pending"), h.Submissions.Pending)
		submissions.GET("/:id", h.Submissions.Get)
		submissions.POST("", h.Submissions.Create)
		submissions.PUT("/:id", h.Submissions.Update)
		submissions.POST("/:id/file", h.Submissions.Upload)
		submissions.GET("/:id/file", h.Submissions.Download)
		submissions.POST("/:id/submit", h.Submissions.Submit)
		submissions.POST("/:id/review", middleware.Require(policy, "submissions", "review"), h.Submissions.StartReview)
		submissions.POST("/:id/approve", middleware.Require(policy, "submissions", "approve"), h.Submissions.Approve)
		submissions.POST("/:id/reject", middleware.Require(policy, "submissions", "reject"), h.Submissions.Reject)
		submissions.POST("/:id/require-revision", middleware.Require(policy, "submissions", "reject"), h.Submissions.RequireRevision)
	}

	vivas := secured.Group("/viva-teams")
	{
		vivas.GET("", h.Vivas.List)
		vivas.GET("/:id", h.Vivas.Get)
		vivas.POST("", middleware.Require(policy, "viva-teams", "propose"), h.Vivas.Propose)
		vivas.PUT("/:id", middleware.Require(policy, "viva-teams", "update"), h.Vivas.Update)
		vivas.POST("/:id/approve", middleware.Require(policy, "viva-teams", "approve"), middleware.Audit(audit, "approve", "viva-teams"), h.Vivas.Approve)
		vivas.POST("/:id/reject", middleware.Require(policy, "viva-teams", "reject"), h.Vivas.Reject)
		vivas.POST("/:id/schedule", middleware.Require(policy, "viva-teams", "schedule"), h.Vivas.Schedule)
		vivas.POST("/:id/outcome", middleware.Require(policy, "viva-teams", "outcome"), middleware.Audit(audit, "outcome", "viva-teams"), h.Vivas.Outcome)
	}

	notifications := secured.Group("/notifications")
	{
		notifications.GET("", h.Notifications.List)
		notifications.GET("/templates", h.Notifications.Templates)
		notifications.POST("", middleware.Require(policy, "notifications", "create"), h.Notifications.Create)
		notifications.POST("/:id/delivered", h.Notifications.MarkDelivered)
		notifications.POST("/retry", middleware.Require(policy, "notifications", "retry"), h.Notifications.Retry)
	}

	reports := secured.Group("/reports")
	reports.Use(middleware.Require(policy, "reports", "read"))
	{
		reports.GET("/student-overview", h.Reports.StudentOverview)
		reports.GET("/supervisor-workload", h.Reports.SupervisorWorkload)
		reports.GET("/submission-analytics", h.Reports.SubmissionAnalytics)
		reports.GET("/timeline-compliance", h.Reports.TimelineCompliance)
		reports.GET("/appraisal-summary", h.Reports.AppraisalSummary)
		reports.GET("/:name/export", middleware.Require(policy, "reports", "export"), h.Reports.Export)
	}

	secured.GET("/system/metrics", middleware.Require(policy, "users", "admin"), h.Metrics.System)

	users := secured.Group("/users")
	users.Use(middleware.Require(policy, "users", "admin"))
	{
		users.GET("", h.Users.List)
		users.GET("/:id", h.Users.Get)
		users.PUT("/:id", middleware.Audit(audit, "update", "users"), h.Users.Update)
	}
}
