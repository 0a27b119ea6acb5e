package models

// AttendanceStatus is the recorded presence of a student at a course on a date.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
	AttendanceExcused AttendanceStatus = "Excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	default:
		return false
	}
}

// AttendanceKey identifies an attendance record. At most one record exists per key.
type AttendanceKey struct {
	StudentID int64
	CourseID  int64
	Date      string
}

// AttendanceRecord is the status of one student at one course on one date.
type AttendanceRecord struct {
	StudentID int64            `db:"student_id" json:"student_id"`
	CourseID  int64            `db:"course_id" json:"course_id"`
	Date      string           `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
}

// Key returns the composite identity of the record.
func (r AttendanceRecord) Key() AttendanceKey {
	return AttendanceKey{StudentID: r.StudentID, CourseID: r.CourseID, Date: r.Date}
}

// AttendanceFilter narrows FetchAttendance. Nil fields match everything.
type AttendanceFilter struct {
	CourseID  *int64
	StudentID *int64
	Date      *string
}

// Matches reports whether the record satisfies every supplied filter.
func (f AttendanceFilter) Matches(r AttendanceRecord) bool {
	if f.CourseID != nil && *f.CourseID != r.CourseID {
		return false
	}
	if f.StudentID != nil && *f.StudentID != r.StudentID {
		return false
	}
	if f.Date != nil && *f.Date != r.Date {
		return false
	}
	return true
}
