package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/upeu-dev/vinculacion-api/internal/middleware"
	"github.com/upeu-dev/vinculacion-api/internal/models"
	"github.com/upeu-dev/vinculacion-api/pkg/config"
)

// Handlers bundles every endpoint group for route registration.
type Handlers struct {
	Projects    *ProjectHandler
	Enrollments *EnrollmentHandler
	Processes   *ProcessHandler
	Sessions    *SessionHandler
	CheckIns    *CheckInHandler
	Attendances *AttendanceHandler
	Lookups     *LookupHandler
}

// Register mounts the engine's routes under the API prefix. Every route sits
// behind token validation; write routes additionally carry a permission
// guard, checked before any resource is touched.
func Register(r *gin.Engine, prefix string, jwtCfg config.JWTConfig, h Handlers) {
	vm := r.Group(prefix + "/vm")
	vm.Use(middleware.Auth(jwtCfg))

	projects := vm.Group("/projects")
	{
		projects.GET("", middleware.Require(models.PermProjectRead), h.Projects.List)
		projects.POST("", middleware.Require(models.PermProjectWrite), h.Projects.Create)
		projects.GET("/available-levels", middleware.Require(models.PermProjectWrite), h.Projects.AvailableLevels)
		projects.GET("/:id", middleware.Require(models.PermProjectRead), h.Projects.Get)
		projects.POST("/:id/publish", middleware.Require(models.PermProjectPublish), h.Projects.Publish)
		projects.POST("/:id/close", middleware.Require(models.PermProjectPublish), h.Projects.Close)
		projects.POST("/:id/cancel", middleware.Require(models.PermProjectPublish), h.Projects.Cancel)

		projects.GET("/:id/processes", middleware.Require(models.PermProjectRead), h.Processes.List)
		projects.POST("/:id/processes", middleware.Require(models.PermProcessWrite), h.Processes.Create)

		projects.POST("/:id/enrollments", middleware.Require(models.PermEnrollmentSelf), h.Enrollments.Enroll)
		projects.GET("/:id/enrollments", middleware.Require(models.PermEnrollmentRead), h.Enrollments.ListEnrolled)
		projects.GET("/:id/candidates", middleware.Require(models.PermEnrollmentRead), h.Enrollments.ListCandidates)
	}

	processes := vm.Group("/processes")
	{
		processes.PUT("/:id", middleware.Require(models.PermProcessWrite), h.Processes.Update)
		processes.DELETE("/:id", middleware.Require(models.PermProcessWrite), h.Processes.Delete)
		processes.GET("/:id/sessions", middleware.Require(models.PermProjectRead), h.Sessions.List)
		processes.POST("/:id/sessions", middleware.Require(models.PermSessionWrite), h.Sessions.CreateBatch)
	}

	sessions := vm.Group("/sessions")
	{
		sessions.GET("/:id", middleware.Require(models.PermProjectRead), h.Sessions.Get)
		sessions.PUT("/:id", middleware.Require(models.PermSessionWrite), h.Sessions.Update)
		sessions.DELETE("/:id", middleware.Require(models.PermSessionWrite), h.Sessions.Delete)
		sessions.POST("/:id/qr", middleware.Require(models.PermAttendanceOpen), h.CheckIns.OpenQR)
		sessions.POST("/:id/manual-window", middleware.Require(models.PermAttendanceOpen), h.CheckIns.ActivateManual)
		sessions.GET("/:id/attendances", middleware.Require(models.PermAttendanceRead), h.Attendances.ListBySession)
		sessions.GET("/:id/roster", middleware.Require(models.PermAttendanceRead), h.Attendances.Roster)
		sessions.GET("/:id/attendances/report", middleware.Require(models.PermReportRead), h.Attendances.Report)
		sessions.POST("/:id/validate", middleware.Require(models.PermAttendanceValidate), h.Attendances.ValidateBatch)
	}

	checkIn := vm.Group("/check-in")
	{
		checkIn.POST("/qr", middleware.Require(models.PermCheckInQR), h.CheckIns.CheckInQR)
		checkIn.POST("/manual", middleware.Require(models.PermCheckInManual), h.CheckIns.CheckInManual)
	}

	attendances := vm.Group("/attendances")
	{
		attendances.POST("/justify", middleware.Require(models.PermAttendanceJustify), h.Attendances.Justify)
	}

	me := vm.Group("/me")
	{
		me.GET("/projects", middleware.Require(models.PermEnrollmentSelf), h.Projects.ListMine)
	}

	lookups := vm.Group("/lookups")
	{
		lookups.GET("/periods", h.Lookups.ListPeriods)
		lookups.GET("/periods/current", h.Lookups.CurrentPeriod)
		lookups.GET("/ep-sites", h.Lookups.ListEPSites)
	}
}
