package dto

import "github.com/noah-isme/school-roster/internal/models"

// CreateStudentRequest registers a new student.
type CreateStudentRequest struct {
	Name        string `json:"name" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
}

// CreateCourseRequest defines a new course.
type CreateCourseRequest struct {
	Name     string `json:"name" validate:"required"`
	Duration string `json:"duration" validate:"required"`
	Teacher  string `json:"teacher" validate:"required"`
}

// CreateClassroomRequest defines a new classroom.
type CreateClassroomRequest struct {
	Name          string `json:"name" validate:"required"`
	ChairCapacity int    `json:"chairCapacity" validate:"min=0"`
}

// EnrollStudentsRequest assigns students to a course.
type EnrollStudentsRequest struct {
	StudentIDs []int64 `json:"studentIds" validate:"dive,min=1"`
}

// EnrollStudentsResponse reports how many students were newly added.
type EnrollStudentsResponse struct {
	CourseID      int64 `json:"courseId"`
	NewlyEnrolled int   `json:"newlyEnrolled"`
	TotalEnrolled int   `json:"totalEnrolled"`
}

// SetScheduleSlotRequest books a course into a classroom slot.
type SetScheduleSlotRequest struct {
	CourseID int64  `json:"courseId" validate:"required,min=1"`
	Slot     string `json:"slot" validate:"required"`
}

// CapacityResponse carries the raw chair shortfall for a classroom.
type CapacityResponse struct {
	ClassroomID int64 `json:"classroomId"`
	Expected    int   `json:"expected"`
	Capacity    int   `json:"capacity"`
	Shortfall   int   `json:"shortfall"`
}

// SupplyCheckRequest asks whether a classroom can seat the expected students.
type SupplyCheckRequest struct {
	Expected int `json:"expected" validate:"min=0"`
}

// RecordAttendanceRequest upserts one attendance record.
type RecordAttendanceRequest struct {
	StudentID int64                   `json:"studentId" validate:"required,min=1"`
	CourseID  int64                   `json:"courseId" validate:"required,min=1"`
	Date      string                  `json:"date" validate:"required,datetime=2006-01-02"`
	Status    models.AttendanceStatus `json:"status" validate:"required,oneof=Present Absent Late Excused"`
}
