package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-roster/internal/service"
	"github.com/noah-isme/school-roster/pkg/response"
)

// CalendarHandler serves the school calendar.
type CalendarHandler struct {
	calendar *service.CalendarService
}

// NewCalendarHandler constructs CalendarHandler.
func NewCalendarHandler(calendar *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// Get godoc
// @Summary Render the school calendar
// @Tags Calendar
// @Produce plain
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "text, csv or pdf" Enums(text, csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /calendar [get]
func (h *CalendarHandler) Get(c *gin.Context) {
	doc, err := h.calendar.Export(c.Request.Context(), c.DefaultQuery("format", service.CalendarFormatText))
	if err != nil {
		response.Error(c, err)
		return
	}
	if c.Query("download") == "true" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	}
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

// WriteFile godoc
// @Summary Write the text calendar to the exports directory
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /calendar/file [post]
func (h *CalendarHandler) WriteFile(c *gin.Context) {
	path, err := h.calendar.WriteFile(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"path": path})
}
