package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers of the roster API.
type Handlers struct {
	Auth       *AuthHandler
	Roster     *RosterHandler
	Attendance *AttendanceHandler
	Calendar   *CalendarHandler
	Store      *StoreHandler
	Metrics    *MetricsHandler
}

// Register mounts the roster routes under prefix. Reads are public; every
// mutation goes through guard.
func Register(r *gin.Engine, prefix string, h Handlers, guard gin.HandlerFunc) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.POST("/auth/login", h.Auth.Login)

	api.GET("/students", h.Roster.ListStudents)
	api.GET("/students/:id", h.Roster.GetStudent)
	api.GET("/courses", h.Roster.ListCourses)
	api.GET("/courses/:id", h.Roster.GetCourse)
	api.GET("/courses/:id/students", h.Roster.CourseRoster)
	api.GET("/classrooms", h.Roster.ListClassrooms)
	api.GET("/classrooms/:id", h.Roster.GetClassroom)
	api.GET("/classrooms/:id/capacity", h.Roster.CheckCapacity)
	api.GET("/attendance", h.Attendance.List)
	api.GET("/calendar", h.Calendar.Get)

	admin := api.Group("", guard)
	admin.POST("/students", h.Roster.CreateStudent)
	admin.POST("/courses", h.Roster.CreateCourse)
	admin.POST("/courses/:id/enrollments", h.Roster.EnrollStudents)
	admin.POST("/classrooms", h.Roster.CreateClassroom)
	admin.PUT("/classrooms/:id/schedule", h.Roster.SetScheduleSlot)
	admin.POST("/classrooms/:id/supply-check", h.Roster.SupplyCheck)
	admin.POST("/attendance", h.Attendance.Record)
	admin.POST("/calendar/file", h.Calendar.WriteFile)
	admin.POST("/store/save", h.Store.Save)
	admin.POST("/store/load", h.Store.Load)
}
