package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/school-roster/internal/models"
	"github.com/noah-isme/school-roster/pkg/logger"
	"github.com/noah-isme/school-roster/pkg/storage"
)

// Collection file names under the data directory.
const (
	StudentsFile   = "students.json"
	CoursesFile    = "courses.json"
	ClassroomsFile = "classrooms.json"
	AttendanceFile = "attendance.json"
)

// Backend keeps the roster as one JSON document per collection. Mutations are
// buffered by the store and written out as a full rewrite on Save.
type Backend struct {
	files  *storage.LocalStorage
	logger *zap.Logger

	mu sync.Mutex
	// unreadable lists the files the last Load could not decode. Save refuses
	// to run while it is non-empty so a rewrite cannot wipe them.
	unreadable []string
}

// NewBackend returns a document backend rooted at the storage directory.
func NewBackend(files *storage.LocalStorage, log *zap.Logger) *Backend {
	return &Backend{files: files, logger: logger.OrNop(log)}
}

// Name identifies the backend in logs.
func (b *Backend) Name() string { return "document" }

// AssignsIDs is false: the store numbers entities itself.
func (b *Backend) AssignsIDs() bool { return false }

// InsertStudent is a no-op; students are written on Save.
func (b *Backend) InsertStudent(ctx context.Context, student *models.Student) error { return nil }

// InsertCourse is a no-op; courses are written on Save.
func (b *Backend) InsertCourse(ctx context.Context, course *models.Course) error { return nil }

// InsertClassroom is a no-op; classrooms are written on Save.
func (b *Backend) InsertClassroom(ctx context.Context, classroom *models.Classroom) error {
	return nil
}

// AddEnrollment is a no-op; enrollments travel with their course on Save.
func (b *Backend) AddEnrollment(ctx context.Context, courseID, studentID int64) error { return nil }

// SaveSchedule is a no-op; schedules travel with their classroom on Save.
func (b *Backend) SaveSchedule(ctx context.Context, classroom *models.Classroom) error { return nil }

// UpsertAttendance is a no-op; attendance is written on Save.
func (b *Backend) UpsertAttendance(ctx context.Context, record *models.AttendanceRecord) error {
	return nil
}

// Save rewrites every collection file. Each file is replaced atomically;
// the first failing write aborts the flush. Nothing is written while a file
// from the last Load is still unreadable.
func (b *Backend) Save(ctx context.Context, snapshot *models.Snapshot) error {
	b.mu.Lock()
	unreadable := append([]string{}, b.unreadable...)
	b.mu.Unlock()
	if len(unreadable) > 0 {
		return fmt.Errorf("%s could not be loaded; repair it and reload before saving", strings.Join(unreadable, ", "))
	}

	documents := []struct {
		name string
		body interface{}
	}{
		{StudentsFile, encodeStudents(snapshot.Students)},
		{ClassroomsFile, encodeClassrooms(snapshot.Classrooms)},
		{CoursesFile, encodeCourses(snapshot.Courses)},
		{AttendanceFile, encodeAttendance(snapshot.Attendance)},
	}
	for _, doc := range documents {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := json.MarshalIndent(doc.body, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", doc.name, err)
		}
		if _, err := b.files.Save(doc.name, payload); err != nil {
			return err
		}
	}
	b.logger.Debug("roster documents written",
		zap.Int("students", len(snapshot.Students)),
		zap.Int("courses", len(snapshot.Courses)),
		zap.Int("classrooms", len(snapshot.Classrooms)),
	)
	return nil
}

// Load decodes every collection file. A missing file yields an empty
// collection; a malformed file leaves its collection empty and is reported.
// Course enrollments written as legacy name keys are resolved here against
// the loaded students.
func (b *Backend) Load(ctx context.Context) (*models.Snapshot, error) {
	snapshot := &models.Snapshot{}
	var errs []error
	var unreadable []string
	defer func() {
		b.mu.Lock()
		b.unreadable = unreadable
		b.mu.Unlock()
	}()

	var students []studentRecord
	if err := b.read(StudentsFile, &students); err != nil {
		errs = append(errs, err)
		unreadable = append(unreadable, StudentsFile)
		students = nil
	}
	snapshot.Students = decodeStudents(students)

	var classrooms []classroomRecord
	if err := b.read(ClassroomsFile, &classrooms); err != nil {
		errs = append(errs, err)
		unreadable = append(unreadable, ClassroomsFile)
		classrooms = nil
	}
	snapshot.Classrooms = decodeClassrooms(classrooms)

	var courses []courseRecord
	if err := b.read(CoursesFile, &courses); err != nil {
		errs = append(errs, err)
		unreadable = append(unreadable, CoursesFile)
		courses = nil
	}
	snapshot.Courses, snapshot.Warnings = decodeCourses(courses, snapshot.Students)

	var attendance []attendanceRecord
	if err := b.read(AttendanceFile, &attendance); err != nil {
		errs = append(errs, err)
		unreadable = append(unreadable, AttendanceFile)
		attendance = nil
	}
	snapshot.Attendance = decodeAttendance(attendance)

	return snapshot, errors.Join(errs...)
}

// read decodes the named document into dest. Absence is not an error.
func (b *Backend) read(name string, dest interface{}) error {
	raw, err := b.files.Read(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			b.logger.Info("collection file not found, starting with an empty collection", zap.String("file", name))
			return nil
		}
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
