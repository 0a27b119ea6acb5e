package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-roster/internal/dto"
	"github.com/noah-isme/school-roster/internal/models"
	"github.com/noah-isme/school-roster/internal/service"
	appErrors "github.com/noah-isme/school-roster/pkg/errors"
	"github.com/noah-isme/school-roster/pkg/response"
)

// AttendanceHandler exposes attendance recording and lookup.
type AttendanceHandler struct {
	roster *service.RosterService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(roster *service.RosterService) *AttendanceHandler {
	return &AttendanceHandler{roster: roster}
}

// Record godoc
// @Summary Record attendance
// @Description Replaces any status already recorded for the same student, course and date.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.RecordAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req dto.RecordAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.roster.RecordAttendance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// List godoc
// @Summary Fetch attendance
// @Tags Attendance
// @Produce json
// @Param courseId query int false "Course filter"
// @Param studentId query int false "Student filter"
// @Param date query string false "Date filter (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	var filter models.AttendanceFilter
	for _, p := range []struct {
		name string
		dest **int64
	}{{"courseId", &filter.CourseID}, {"studentId", &filter.StudentID}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+p.name))
			return
		}
		*p.dest = &v
	}
	if date := c.Query("date"); date != "" {
		filter.Date = &date
	}

	records := h.roster.FetchAttendance(filter)
	response.JSON(c, http.StatusOK, records, map[string]interface{}{"total": len(records)})
}
