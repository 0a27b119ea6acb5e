package document

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-roster/internal/models"
	"github.com/noah-isme/school-roster/pkg/storage"
)

func newTestBackend(t *testing.T) (*Backend, *storage.LocalStorage) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewBackend(files, nil), files
}

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Students: []models.Student{
			{ID: 1, Person: models.Person{Name: "Alice", LastName: "Smith", DateOfBirth: "2008-03-01"}},
			{ID: 2, Person: models.Person{Name: "Bob", LastName: "Jones", DateOfBirth: "2008-07-12"}},
		},
		Courses: []models.Course{
			{ID: 1, Name: "Math", Duration: "120 hours", Teacher: "Prof. Bianchi", Enrolled: []int64{2, 1}},
		},
		Classrooms: []models.Classroom{
			{ID: 1, Name: "Room A", ChairCapacity: 20, Schedule: models.Schedule{"Monday 09:00": "Math"}},
		},
		Attendance: []models.AttendanceRecord{
			{StudentID: 1, CourseID: 1, Date: "2024-01-10", Status: models.AttendancePresent},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	backend, _ := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Save(ctx, sampleSnapshot()))

	loaded, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot().Students, loaded.Students)
	assert.Equal(t, sampleSnapshot().Courses, loaded.Courses)
	assert.Equal(t, sampleSnapshot().Classrooms, loaded.Classrooms)
	assert.Equal(t, sampleSnapshot().Attendance, loaded.Attendance)
	assert.Empty(t, loaded.Warnings)
}

func TestSaveWritesIDsNotKeys(t *testing.T) {
	backend, files := newTestBackend(t)
	require.NoError(t, backend.Save(context.Background(), sampleSnapshot()))

	raw, err := files.Read(CoursesFile)
	require.NoError(t, err)
	var courses []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &courses))
	require.Len(t, courses, 1)
	assert.Equal(t, []interface{}{float64(2), float64(1)}, courses[0]["enrolled_student_ids"])
	assert.NotContains(t, courses[0], "enrolled_student_keys")
	assert.Equal(t, "Prof. Bianchi", courses[0]["teacher_name"])
}

func TestLoadMissingFilesIsEmpty(t *testing.T) {
	backend, _ := newTestBackend(t)

	loaded, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded.Students)
	assert.Empty(t, loaded.Courses)
	assert.Empty(t, loaded.Classrooms)
	assert.Empty(t, loaded.Attendance)
}

func TestLoadMalformedFileOnlyAffectsItsCollection(t *testing.T) {
	backend, files := newTestBackend(t)
	require.NoError(t, backend.Save(context.Background(), sampleSnapshot()))
	_, err := files.Save(ClassroomsFile, []byte(`[{"name": "Room A", "chair_capacity": "twenty"}]`))
	require.NoError(t, err)

	loaded, err := backend.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ClassroomsFile)
	assert.Empty(t, loaded.Classrooms)
	assert.Len(t, loaded.Students, 2)
	assert.Len(t, loaded.Courses, 1)
}

func TestSaveRefusedWhileAFileIsUnreadable(t *testing.T) {
	backend, files := newTestBackend(t)
	require.NoError(t, backend.Save(context.Background(), sampleSnapshot()))
	corrupt := []byte(`[{"id": 1, "name": "Math",}]`)
	_, err := files.Save(CoursesFile, corrupt)
	require.NoError(t, err)

	loaded, err := backend.Load(context.Background())
	require.Error(t, err)

	err = backend.Save(context.Background(), loaded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), CoursesFile)
	raw, err := files.Read(CoursesFile)
	require.NoError(t, err)
	assert.Equal(t, corrupt, raw)

	_, err = files.Save(CoursesFile, []byte(`[]`))
	require.NoError(t, err)
	loaded, err = backend.Load(context.Background())
	require.NoError(t, err)
	assert.NoError(t, backend.Save(context.Background(), loaded))
}

func TestLoadResolvesLegacyKeys(t *testing.T) {
	backend, files := newTestBackend(t)
	_, err := files.Save(StudentsFile, []byte(`[
        {"name": "Alice", "last_name": "Smith", "date_of_birth": "2008-03-01"},
        {"name": "Bob", "last_name": "Jones", "date_of_birth": "2008-07-12"}
    ]`))
	require.NoError(t, err)
	_, err = files.Save(CoursesFile, []byte(`[
        {"name": "Math", "duration": "120 hours", "teacher_name": "Prof. Bianchi",
         "enrolled_student_keys": ["BobJones", "AliceSmith", "CarlaRossi"]}
    ]`))
	require.NoError(t, err)

	loaded, err := backend.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded.Students, 2)
	assert.Equal(t, int64(1), loaded.Students[0].ID)
	assert.Equal(t, int64(2), loaded.Students[1].ID)
	require.Len(t, loaded.Courses, 1)
	assert.Equal(t, int64(1), loaded.Courses[0].ID)
	assert.Equal(t, []int64{2, 1}, loaded.Courses[0].Enrolled)
	require.Len(t, loaded.Warnings, 1)
	assert.Equal(t, "CarlaRossi", loaded.Warnings[0].Reference)
}

func TestLoadAmbiguousLegacyKeyUsesFirstMatch(t *testing.T) {
	backend, files := newTestBackend(t)
	_, err := files.Save(StudentsFile, []byte(`[
        {"id": 4, "name": "Alice", "last_name": "Smith", "date_of_birth": "2008-03-01"},
        {"id": 9, "name": "Alice", "last_name": "Smith", "date_of_birth": "2009-01-01"}
    ]`))
	require.NoError(t, err)
	_, err = files.Save(CoursesFile, []byte(`[{"id": 1, "name": "Math", "duration": "x", "teacher_name": "y", "enrolled_student_keys": ["AliceSmith"]}]`))
	require.NoError(t, err)

	loaded, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, loaded.Courses[0].Enrolled)
	require.Len(t, loaded.Warnings, 1)
	assert.Contains(t, loaded.Warnings[0].Message, "ambiguous")
}

func TestLoadNullScheduleBecomesEmpty(t *testing.T) {
	backend, files := newTestBackend(t)
	_, err := files.Save(ClassroomsFile, []byte(`[{"id": 3, "name": "Lab", "chair_capacity": 12, "schedule": null}]`))
	require.NoError(t, err)

	loaded, err := backend.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded.Classrooms, 1)
	assert.NotNil(t, loaded.Classrooms[0].Schedule)
	assert.Empty(t, loaded.Classrooms[0].Schedule)
}
