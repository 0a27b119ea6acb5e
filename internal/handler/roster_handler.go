package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-roster/internal/dto"
	"github.com/noah-isme/school-roster/internal/service"
	appErrors "github.com/noah-isme/school-roster/pkg/errors"
	"github.com/noah-isme/school-roster/pkg/response"
)

// RosterHandler exposes students, courses and classrooms.
type RosterHandler struct {
	roster *service.RosterService
	supply *service.SupplyService
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(roster *service.RosterService, supply *service.SupplyService) *RosterHandler {
	return &RosterHandler{roster: roster, supply: supply}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

// ListStudents godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *RosterHandler) ListStudents(c *gin.Context) {
	students := h.roster.ListStudents()
	response.JSON(c, http.StatusOK, students, map[string]interface{}{"total": len(students)})
}

// GetStudent godoc
// @Summary Get student
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *RosterHandler) GetStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	student, err := h.roster.GetStudent(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// CreateStudent godoc
// @Summary Register student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *RosterHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.roster.CreateStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// ListCourses godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *RosterHandler) ListCourses(c *gin.Context) {
	courses := h.roster.ListCourses()
	response.JSON(c, http.StatusOK, courses, map[string]interface{}{"total": len(courses)})
}

// GetCourse godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *RosterHandler) GetCourse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	course, err := h.roster.GetCourse(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// CreateCourse godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *RosterHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.roster.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// CourseRoster godoc
// @Summary List students enrolled in a course
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/students [get]
func (h *RosterHandler) CourseRoster(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	students, err := h.roster.CourseRoster(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, map[string]interface{}{"total": len(students)})
}

// EnrollStudents godoc
// @Summary Enroll students in a course
// @Description Students already on the course are skipped.
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body dto.EnrollStudentsRequest true "Students to enroll"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/enrollments [post]
func (h *RosterHandler) EnrollStudents(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.EnrollStudentsRequest
	if !bindJSON(c, &req) {
		return
	}
	added, err := h.roster.EnrollStudents(c.Request.Context(), id, req.StudentIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	course, err := h.roster.GetCourse(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.EnrollStudentsResponse{CourseID: id, NewlyEnrolled: added, TotalEnrolled: len(course.Enrolled)})
}

// ListClassrooms godoc
// @Summary List classrooms
// @Tags Classrooms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *RosterHandler) ListClassrooms(c *gin.Context) {
	classrooms := h.roster.ListClassrooms()
	response.JSON(c, http.StatusOK, classrooms, map[string]interface{}{"total": len(classrooms)})
}

// GetClassroom godoc
// @Summary Get classroom with its schedule
// @Tags Classrooms
// @Produce json
// @Param id path int true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id} [get]
func (h *RosterHandler) GetClassroom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	classroom, err := h.roster.GetClassroom(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classroom)
}

// CreateClassroom godoc
// @Summary Create classroom
// @Tags Classrooms
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassroomRequest true "Classroom payload"
// @Success 201 {object} response.Envelope
// @Router /classrooms [post]
func (h *RosterHandler) CreateClassroom(c *gin.Context) {
	var req dto.CreateClassroomRequest
	if !bindJSON(c, &req) {
		return
	}
	classroom, err := h.roster.CreateClassroom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, classroom)
}

// SetScheduleSlot godoc
// @Summary Book a course into a classroom slot
// @Description An occupied slot is overwritten.
// @Tags Classrooms
// @Accept json
// @Produce json
// @Param id path int true "Classroom ID"
// @Param payload body dto.SetScheduleSlotRequest true "Slot payload"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/schedule [put]
func (h *RosterHandler) SetScheduleSlot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SetScheduleSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.roster.SetScheduleSlot(c.Request.Context(), id, req.CourseID, req.Slot); err != nil {
		response.Error(c, err)
		return
	}
	classroom, err := h.roster.GetClassroom(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classroom)
}

// CheckCapacity godoc
// @Summary Compare expected students with chairs
// @Description Positive shortfall means chairs are missing.
// @Tags Classrooms
// @Produce json
// @Param id path int true "Classroom ID"
// @Param expected query int true "Expected students"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/capacity [get]
func (h *RosterHandler) CheckCapacity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	expected, err := strconv.Atoi(c.Query("expected"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "expected must be an integer"))
		return
	}
	classroom, err := h.roster.GetClassroom(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	shortfall, err := h.roster.CheckCapacity(id, expected)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.CapacityResponse{
		ClassroomID: id,
		Expected:    expected,
		Capacity:    classroom.ChairCapacity,
		Shortfall:   shortfall,
	})
}

// SupplyCheck godoc
// @Summary Check chairs and order the missing ones
// @Tags Classrooms
// @Accept json
// @Produce json
// @Param id path int true "Classroom ID"
// @Param payload body dto.SupplyCheckRequest true "Expected students"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/supply-check [post]
func (h *RosterHandler) SupplyCheck(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SupplyCheckRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.supply.Check(c.Request.Context(), id, req.Expected)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
