package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-roster/internal/models"
	"github.com/noah-isme/school-roster/pkg/database"
)

type recordingObserver struct {
	labels []string
}

func (o *recordingObserver) ObserveDBQuery(label string, _ time.Duration) {
	o.labels = append(o.labels, label)
}

func expectFullLoad(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM students ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "last_name", "date_of_birth"}).
			AddRow(1, "Alice", "Smith", "2008-03-01").
			AddRow(2, "Bob", "Jones", "2008-07-12"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM classrooms ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "chair_capacity", "schedule_json"}).
			AddRow(1, "Room A", 20, []byte(`{"Monday 09:00":"Math"}`)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, duration, teacher FROM courses ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "duration", "teacher"}).
			AddRow(1, "Math", "120 hours", "Prof. Bianchi"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_id, student_id FROM course_students ORDER BY course_id, seq")).
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "student_id"}).
			AddRow(1, 2).
			AddRow(1, 1).
			AddRow(99, 1))
}

func TestRelationalBackendLoad(t *testing.T) {
	db, mock, cleanup := newRosterMock(t)
	defer cleanup()
	observer := &recordingObserver{}
	backend := NewRelationalBackend(db, observer, nil)

	expectFullLoad(mock)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance WHERE 1=1 ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "course_id", "date", "status"}).
			AddRow(1, 1, "2024-01-10", "Present"))

	snapshot, err := backend.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Students, 2)
	require.Len(t, snapshot.Courses, 1)
	assert.Equal(t, []int64{2, 1}, snapshot.Courses[0].Enrolled)
	assert.Equal(t, "Math", snapshot.Classrooms[0].Schedule["Monday 09:00"])
	require.Len(t, snapshot.Attendance, 1)
	assert.Equal(t, []string{"load_students", "load_classrooms", "load_courses", "load_attendance"}, observer.labels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationalBackendLoadMissingTableIsEmpty(t *testing.T) {
	db, mock, cleanup := newRosterMock(t)
	defer cleanup()
	backend := NewRelationalBackend(db, nil, nil)

	expectFullLoad(mock)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance")).
		WillReturnError(&pq.Error{Code: "42P01", Message: `relation "attendance" does not exist`})

	snapshot, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot.Attendance)
	assert.Len(t, snapshot.Students, 2)
}

func TestRelationalBackendLoadReportsFailures(t *testing.T) {
	db, mock, cleanup := newRosterMock(t)
	defer cleanup()
	backend := NewRelationalBackend(db, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students ORDER BY id")).WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM classrooms ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "chair_capacity", "schedule_json"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "duration", "teacher"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM course_students")).
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "student_id"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance")).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "course_id", "date", "status"}))

	snapshot, err := backend.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, snapshot.Students)
}

func TestRelationalBackendDuplicateCourseName(t *testing.T) {
	db, mock, cleanup := newRosterMock(t)
	defer cleanup()
	backend := NewRelationalBackend(db, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO courses")).
		WithArgs("Math", "120 hours", "Prof. Bianchi").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := backend.InsertCourse(context.Background(), &models.Course{Name: "Math", Duration: "120 hours", Teacher: "Prof. Bianchi"})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestRelationalBackendSaveIsNoop(t *testing.T) {
	db, mock, cleanup := newRosterMock(t)
	defer cleanup()
	backend := NewRelationalBackend(db, nil, nil)

	require.NoError(t, backend.Save(context.Background(), &models.Snapshot{Students: []models.Student{{ID: 1}}}))
	assert.True(t, backend.AssignsIDs())
	assert.NoError(t, mock.ExpectationsWereMet())
}
