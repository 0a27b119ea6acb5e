package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-roster/internal/models"
	"github.com/noah-isme/school-roster/pkg/database"
	"github.com/noah-isme/school-roster/pkg/logger"
)

// QueryObserver receives the duration of every backend statement.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// RelationalBackend persists the roster in PostgreSQL. Every mutation is
// written through as its own statement, so Save has nothing left to flush.
type RelationalBackend struct {
	students   *StudentRepository
	courses    *CourseRepository
	classrooms *ClassroomRepository
	attendance *AttendanceRepository
	observer   QueryObserver
	logger     *zap.Logger
}

// NewRelationalBackend wires the table repositories over one connection pool.
func NewRelationalBackend(db *sqlx.DB, observer QueryObserver, log *zap.Logger) *RelationalBackend {
	return &RelationalBackend{
		students:   NewStudentRepository(db),
		courses:    NewCourseRepository(db),
		classrooms: NewClassroomRepository(db),
		attendance: NewAttendanceRepository(db),
		observer:   observer,
		logger:     logger.OrNop(log),
	}
}

// Name identifies the backend in logs.
func (b *RelationalBackend) Name() string { return "relational" }

// AssignsIDs is true: identifiers come from BIGSERIAL columns.
func (b *RelationalBackend) AssignsIDs() bool { return true }

// InsertStudent inserts the student and sets its generated id.
func (b *RelationalBackend) InsertStudent(ctx context.Context, student *models.Student) error {
	return b.timed("insert_student", func() error { return b.students.Create(ctx, student) })
}

// InsertCourse inserts the course and sets its generated id.
func (b *RelationalBackend) InsertCourse(ctx context.Context, course *models.Course) error {
	return b.timed("insert_course", func() error { return b.courses.Create(ctx, course) })
}

// InsertClassroom inserts the classroom and sets its generated id.
func (b *RelationalBackend) InsertClassroom(ctx context.Context, classroom *models.Classroom) error {
	return b.timed("insert_classroom", func() error { return b.classrooms.Create(ctx, classroom) })
}

// AddEnrollment inserts one course_students row.
func (b *RelationalBackend) AddEnrollment(ctx context.Context, courseID, studentID int64) error {
	return b.timed("add_enrollment", func() error { return b.courses.AddEnrollment(ctx, courseID, studentID) })
}

// SaveSchedule replaces the stored schedule of the classroom.
func (b *RelationalBackend) SaveSchedule(ctx context.Context, classroom *models.Classroom) error {
	return b.timed("save_schedule", func() error {
		return b.classrooms.UpdateSchedule(ctx, classroom.ID, classroom.Schedule)
	})
}

// UpsertAttendance inserts the record or overwrites its status.
func (b *RelationalBackend) UpsertAttendance(ctx context.Context, record *models.AttendanceRecord) error {
	return b.timed("upsert_attendance", func() error { return b.attendance.Upsert(ctx, record) })
}

// Save is a no-op; every mutation has already been committed.
func (b *RelationalBackend) Save(ctx context.Context, snapshot *models.Snapshot) error {
	return nil
}

// Load reads every table. A missing table yields an empty collection; any
// other failure is reported and leaves that collection empty.
func (b *RelationalBackend) Load(ctx context.Context) (*models.Snapshot, error) {
	snapshot := &models.Snapshot{}
	var errs []error

	collect := func(entity string, fn func() error) {
		if err := b.timed("load_"+entity, fn); err != nil {
			if database.IsUndefinedTable(err) {
				b.logger.Info("table not found, starting with an empty collection", zap.String("entity", entity))
				return
			}
			errs = append(errs, err)
		}
	}

	collect("students", func() (err error) {
		snapshot.Students, err = b.students.List(ctx)
		return err
	})
	collect("classrooms", func() (err error) {
		snapshot.Classrooms, err = b.classrooms.List(ctx)
		return err
	})

	var enrollments []models.Enrollment
	collect("courses", func() error {
		courses, err := b.courses.List(ctx)
		if err != nil {
			return err
		}
		enrollments, err = b.courses.ListEnrollments(ctx)
		if err != nil {
			return err
		}
		snapshot.Courses = attachEnrollments(courses, enrollments)
		return nil
	})
	collect("attendance", func() (err error) {
		snapshot.Attendance, err = b.attendance.List(ctx, models.AttendanceFilter{})
		return err
	})

	return snapshot, errors.Join(errs...)
}

// Roster returns the students enrolled in a course straight from the join.
func (b *RelationalBackend) Roster(ctx context.Context, courseID int64) ([]models.Student, error) {
	var students []models.Student
	err := b.timed("course_roster", func() (err error) {
		students, err = b.courses.Roster(ctx, courseID)
		return err
	})
	return students, err
}

func (b *RelationalBackend) timed(label string, fn func() error) error {
	start := time.Now()
	err := fn()
	if b.observer != nil {
		b.observer.ObserveDBQuery(label, time.Since(start))
	}
	return err
}

// attachEnrollments keeps junction rows whose course exists; the store resolves students.
func attachEnrollments(courses []models.Course, enrollments []models.Enrollment) []models.Course {
	index := make(map[int64]int, len(courses))
	for i := range courses {
		index[courses[i].ID] = i
	}
	for _, e := range enrollments {
		if i, ok := index[e.CourseID]; ok {
			courses[i].Enrolled = append(courses[i].Enrolled, e.StudentID)
		}
	}
	return courses
}
