package models

// Course is a taught course and the ordered, duplicate-free list of students enrolled in it.
type Course struct {
	ID       int64   `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Duration string  `db:"duration" json:"duration"`
	Teacher  string  `db:"teacher" json:"teacher"`
	Enrolled []int64 `db:"-" json:"enrolled_student_ids"`
}

// IsEnrolled reports whether the student id is already on the course list.
func (c *Course) IsEnrolled(studentID int64) bool {
	for _, id := range c.Enrolled {
		if id == studentID {
			return true
		}
	}
	return false
}

// Clone returns a copy that does not share the enrollment slice.
func (c Course) Clone() Course {
	c.Enrolled = append([]int64(nil), c.Enrolled...)
	return c
}

// Enrollment is one row of the course/student junction.
type Enrollment struct {
	CourseID  int64 `db:"course_id" json:"course_id"`
	StudentID int64 `db:"student_id" json:"student_id"`
}
