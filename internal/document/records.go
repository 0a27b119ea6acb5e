package document

import (
	"github.com/noah-isme/school-roster/internal/models"
)

type studentRecord struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
}

// courseRecord references students by id. Files written before ids were
// persisted carry enrolled_student_keys (name+lastName) instead; those are
// only read, never written.
type courseRecord struct {
	ID                  int64    `json:"id,omitempty"`
	Name                string   `json:"name"`
	Duration            string   `json:"duration"`
	TeacherName         string   `json:"teacher_name"`
	EnrolledStudentIDs  []int64  `json:"enrolled_student_ids"`
	EnrolledStudentKeys []string `json:"enrolled_student_keys,omitempty"`
}

type classroomRecord struct {
	ID            int64             `json:"id,omitempty"`
	Name          string            `json:"name"`
	ChairCapacity int               `json:"chair_capacity"`
	Schedule      map[string]string `json:"schedule"`
}

type attendanceRecord struct {
	StudentID int64  `json:"student_id"`
	CourseID  int64  `json:"course_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
}

func encodeStudents(students []models.Student) []studentRecord {
	out := make([]studentRecord, 0, len(students))
	for _, s := range students {
		out = append(out, studentRecord{ID: s.ID, Name: s.Name, LastName: s.LastName, DateOfBirth: s.DateOfBirth})
	}
	return out
}

func encodeCourses(courses []models.Course) []courseRecord {
	out := make([]courseRecord, 0, len(courses))
	for _, c := range courses {
		ids := append([]int64{}, c.Enrolled...)
		out = append(out, courseRecord{ID: c.ID, Name: c.Name, Duration: c.Duration, TeacherName: c.Teacher, EnrolledStudentIDs: ids})
	}
	return out
}

func encodeClassrooms(classrooms []models.Classroom) []classroomRecord {
	out := make([]classroomRecord, 0, len(classrooms))
	for _, c := range classrooms {
		schedule := map[string]string(c.Schedule.Clone())
		out = append(out, classroomRecord{ID: c.ID, Name: c.Name, ChairCapacity: c.ChairCapacity, Schedule: schedule})
	}
	return out
}

func encodeAttendance(records []models.AttendanceRecord) []attendanceRecord {
	out := make([]attendanceRecord, 0, len(records))
	for _, r := range records {
		out = append(out, attendanceRecord{StudentID: r.StudentID, CourseID: r.CourseID, Date: r.Date, Status: string(r.Status)})
	}
	return out
}

func decodeStudents(records []studentRecord) []models.Student {
	next := nextID(len(records), func(i int) int64 { return records[i].ID })
	out := make([]models.Student, 0, len(records))
	for _, r := range records {
		id := r.ID
		if id == 0 {
			id = next
			next++
		}
		out = append(out, models.Student{ID: id, Person: models.Person{Name: r.Name, LastName: r.LastName, DateOfBirth: r.DateOfBirth}})
	}
	return out
}

func decodeClassrooms(records []classroomRecord) []models.Classroom {
	next := nextID(len(records), func(i int) int64 { return records[i].ID })
	out := make([]models.Classroom, 0, len(records))
	for _, r := range records {
		id := r.ID
		if id == 0 {
			id = next
			next++
		}
		schedule := models.Schedule(r.Schedule).Clone()
		out = append(out, models.Classroom{ID: id, Name: r.Name, ChairCapacity: r.ChairCapacity, Schedule: schedule})
	}
	return out
}

// decodeCourses restores courses. Enrollments listed by id are passed through
// for the store to resolve; legacy name keys are mapped to ids here, and keys
// that match no student are reported.
func decodeCourses(records []courseRecord, students []models.Student) ([]models.Course, []models.ReferentialWarning) {
	byKey := make(map[string][]int64, len(students))
	for _, s := range students {
		byKey[s.LegacyKey()] = append(byKey[s.LegacyKey()], s.ID)
	}

	next := nextID(len(records), func(i int) int64 { return records[i].ID })
	out := make([]models.Course, 0, len(records))
	var warnings []models.ReferentialWarning
	for _, r := range records {
		id := r.ID
		if id == 0 {
			id = next
			next++
		}
		course := models.Course{ID: id, Name: r.Name, Duration: r.Duration, Teacher: r.TeacherName, Enrolled: []int64{}}
		if len(r.EnrolledStudentIDs) > 0 || len(r.EnrolledStudentKeys) == 0 {
			course.Enrolled = append(course.Enrolled, r.EnrolledStudentIDs...)
			out = append(out, course)
			continue
		}
		for _, key := range r.EnrolledStudentKeys {
			matches := byKey[key]
			switch {
			case len(matches) == 0:
				warnings = append(warnings, models.ReferentialWarning{
					Entity: "course", EntityID: id, Reference: key, Message: "enrolled student key not found",
				})
				continue
			case len(matches) > 1:
				warnings = append(warnings, models.ReferentialWarning{
					Entity: "course", EntityID: id, Reference: key, Message: "enrolled student key is ambiguous, first match used",
				})
			}
			course.Enrolled = append(course.Enrolled, matches[0])
		}
		out = append(out, course)
	}
	return out, warnings
}

func decodeAttendance(records []attendanceRecord) []models.AttendanceRecord {
	out := make([]models.AttendanceRecord, 0, len(records))
	for _, r := range records {
		out = append(out, models.AttendanceRecord{
			StudentID: r.StudentID,
			CourseID:  r.CourseID,
			Date:      r.Date,
			Status:    models.AttendanceStatus(r.Status),
		})
	}
	return out
}

// nextID returns one past the largest explicit id, for numbering legacy records.
func nextID(n int, idAt func(int) int64) int64 {
	var max int64
	for i := 0; i < n; i++ {
		if id := idAt(i); id > max {
			max = id
		}
	}
	return max + 1
}
