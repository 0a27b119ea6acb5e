package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-roster/internal/models"
)

// CourseRepository manages courses and the course/student junction.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a course. A taken name surfaces as a unique violation.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (name, duration, teacher) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.GetContext(ctx, &course.ID, query, course.Name, course.Duration, course.Teacher); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// List returns every course in identifier order without enrollments.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, name, duration, teacher FROM courses ORDER BY id`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// AddEnrollment links a student to a course; an existing link is left untouched.
func (r *CourseRepository) AddEnrollment(ctx context.Context, courseID, studentID int64) error {
	const query = `INSERT INTO course_students (course_id, student_id) VALUES ($1, $2) ON CONFLICT (course_id, student_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, courseID, studentID); err != nil {
		return fmt.Errorf("enroll student %d in course %d: %w", studentID, courseID, err)
	}
	return nil
}

// ListEnrollments returns all junction rows in enrollment order per course.
func (r *CourseRepository) ListEnrollments(ctx context.Context) ([]models.Enrollment, error) {
	const query = `SELECT course_id, student_id FROM course_students ORDER BY course_id, seq`
	var rows []models.Enrollment
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return rows, nil
}

// Roster joins the junction with students for one course.
func (r *CourseRepository) Roster(ctx context.Context, courseID int64) ([]models.Student, error) {
	const query = `SELECT s.id, s.name, s.last_name, to_char(s.date_of_birth, 'YYYY-MM-DD') AS date_of_birth
        FROM course_students cs JOIN students s ON s.id = cs.student_id
        WHERE cs.course_id = $1 ORDER BY cs.seq`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("course roster: %w", err)
	}
	return students, nil
}
