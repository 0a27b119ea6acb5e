package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-roster/internal/dto"
	"github.com/noah-isme/school-roster/internal/models"
	"github.com/noah-isme/school-roster/pkg/database"
	appErrors "github.com/noah-isme/school-roster/pkg/errors"
)

// Backend is the durable side of the roster. The document backend buffers
// everything until Save; the relational backend writes each hook through and
// treats Save as a no-op.
type Backend interface {
	Name() string
	// AssignsIDs reports whether Insert* fills the identifier in. When false
	// the store assigns identifiers itself.
	AssignsIDs() bool
	InsertStudent(ctx context.Context, student *models.Student) error
	InsertCourse(ctx context.Context, course *models.Course) error
	InsertClassroom(ctx context.Context, classroom *models.Classroom) error
	AddEnrollment(ctx context.Context, courseID, studentID int64) error
	SaveSchedule(ctx context.Context, classroom *models.Classroom) error
	UpsertAttendance(ctx context.Context, record *models.AttendanceRecord) error
	Save(ctx context.Context, snapshot *models.Snapshot) error
	Load(ctx context.Context) (*models.Snapshot, error)
}

// rosterReader is implemented by backends able to answer a course roster directly.
type rosterReader interface {
	Roster(ctx context.Context, courseID int64) ([]models.Student, error)
}

// ChangeKind tells subscribers which part of the roster moved.
type ChangeKind string

const (
	ChangeStudents   ChangeKind = "students"
	ChangeCourses    ChangeKind = "courses"
	ChangeClassrooms ChangeKind = "classrooms"
	ChangeEnrollment ChangeKind = "enrollment"
	ChangeSchedule   ChangeKind = "schedule"
	ChangeAttendance ChangeKind = "attendance"
	ChangeLoad       ChangeKind = "load"
)

// RosterOptions tunes store behaviour.
type RosterOptions struct {
	// UniqueNames rejects duplicate course and classroom names regardless of backend.
	UniqueNames bool
	Metrics     *MetricsService
}

// RosterService owns the students, courses, classrooms and attendance of one
// school together with their cross references. Every operation runs under a
// single mutex.
type RosterService struct {
	mu        sync.Mutex
	backend   Backend
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	unique    bool

	students   []models.Student
	courses    []models.Course
	classrooms []models.Classroom
	attendance []models.AttendanceRecord

	studentIdx    map[int64]int
	courseIdx     map[int64]int
	classroomIdx  map[int64]int
	attendanceIdx map[models.AttendanceKey]int

	nextStudentID   int64
	nextCourseID    int64
	nextClassroomID int64

	subMu       sync.RWMutex
	subscribers []func(ChangeKind)
}

// NewRosterService constructs an empty store over the backend.
func NewRosterService(backend Backend, opts RosterOptions, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RosterService{
		backend:   backend,
		validator: validate,
		logger:    logger,
		metrics:   opts.Metrics,
		unique:    opts.UniqueNames,
	}
	s.reset()
	return s
}

// Backend returns the name of the active persistence backend.
func (s *RosterService) Backend() string {
	return s.backend.Name()
}

// Subscribe registers fn to run after every successful mutation or load.
// Callbacks run outside the store lock.
func (s *RosterService) Subscribe(fn func(ChangeKind)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *RosterService) notify(kind ChangeKind) {
	s.subMu.RLock()
	subs := append([]func(ChangeKind){}, s.subscribers...)
	s.subMu.RUnlock()
	for _, fn := range subs {
		fn(kind)
	}
}

func (s *RosterService) reset() {
	s.students = nil
	s.courses = nil
	s.classrooms = nil
	s.attendance = nil
	s.studentIdx = make(map[int64]int)
	s.courseIdx = make(map[int64]int)
	s.classroomIdx = make(map[int64]int)
	s.attendanceIdx = make(map[models.AttendanceKey]int)
	s.nextStudentID = 1
	s.nextCourseID = 1
	s.nextClassroomID = 1
}

// CreateStudent registers a student and returns it with its identifier.
func (s *RosterService) CreateStudent(ctx context.Context, req dto.CreateStudentRequest) (student *models.Student, err error) {
	defer func() { s.metrics.RecordRosterOperation("create_student", err) }()

	req.Name = strings.TrimSpace(req.Name)
	req.LastName = strings.TrimSpace(req.LastName)
	req.DateOfBirth = strings.TrimSpace(req.DateOfBirth)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}

	s.mu.Lock()
	created := models.Student{Person: models.Person{Name: req.Name, LastName: req.LastName, DateOfBirth: req.DateOfBirth}}
	if !s.backend.AssignsIDs() {
		created.ID = s.nextStudentID
	}
	if err := s.backend.InsertStudent(ctx, &created); err != nil {
		s.mu.Unlock()
		return nil, appErrors.Persistence(err, "failed to store student")
	}
	s.students = append(s.students, created)
	s.studentIdx[created.ID] = len(s.students) - 1
	s.bumpNext(&s.nextStudentID, created.ID)
	s.mu.Unlock()

	s.notify(ChangeStudents)
	return &created, nil
}

// CreateCourse defines a course. Names must be unique when the store enforces
// it or when the backend rejects duplicates.
func (s *RosterService) CreateCourse(ctx context.Context, req dto.CreateCourseRequest) (course *models.Course, err error) {
	defer func() { s.metrics.RecordRosterOperation("create_course", err) }()

	req.Name = strings.TrimSpace(req.Name)
	req.Duration = strings.TrimSpace(req.Duration)
	req.Teacher = strings.TrimSpace(req.Teacher)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid course payload")
	}

	s.mu.Lock()
	if s.unique && s.courseNameTaken(req.Name) {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrDuplicateName, fmt.Sprintf("course %q already exists", req.Name))
	}
	created := models.Course{Name: req.Name, Duration: req.Duration, Teacher: req.Teacher, Enrolled: []int64{}}
	if !s.backend.AssignsIDs() {
		created.ID = s.nextCourseID
	}
	if err := s.backend.InsertCourse(ctx, &created); err != nil {
		s.mu.Unlock()
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrDuplicateName.Code, appErrors.ErrDuplicateName.Status, fmt.Sprintf("course %q already exists", req.Name))
		}
		return nil, appErrors.Persistence(err, "failed to store course")
	}
	s.courses = append(s.courses, created)
	s.courseIdx[created.ID] = len(s.courses) - 1
	s.bumpNext(&s.nextCourseID, created.ID)
	s.mu.Unlock()

	s.notify(ChangeCourses)
	out := created.Clone()
	return &out, nil
}

// CreateClassroom defines a classroom with an empty schedule.
func (s *RosterService) CreateClassroom(ctx context.Context, req dto.CreateClassroomRequest) (classroom *models.Classroom, err error) {
	defer func() { s.metrics.RecordRosterOperation("create_classroom", err) }()

	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid classroom payload")
	}

	s.mu.Lock()
	if s.unique && s.classroomNameTaken(req.Name) {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrDuplicateName, fmt.Sprintf("classroom %q already exists", req.Name))
	}
	created := models.Classroom{Name: req.Name, ChairCapacity: req.ChairCapacity, Schedule: models.Schedule{}}
	if !s.backend.AssignsIDs() {
		created.ID = s.nextClassroomID
	}
	if err := s.backend.InsertClassroom(ctx, &created); err != nil {
		s.mu.Unlock()
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrDuplicateName.Code, appErrors.ErrDuplicateName.Status, fmt.Sprintf("classroom %q already exists", req.Name))
		}
		return nil, appErrors.Persistence(err, "failed to store classroom")
	}
	s.classrooms = append(s.classrooms, created)
	s.classroomIdx[created.ID] = len(s.classrooms) - 1
	s.bumpNext(&s.nextClassroomID, created.ID)
	s.mu.Unlock()

	s.notify(ChangeClassrooms)
	out := created.Clone()
	return &out, nil
}

// EnrollStudents appends every student not yet on the course and returns how
// many were added. Each junction row is committed on its own, so a storage
// failure keeps the students enrolled before it.
func (s *RosterService) EnrollStudents(ctx context.Context, courseID int64, studentIDs []int64) (added int, err error) {
	defer func() { s.metrics.RecordRosterOperation("enroll_students", err) }()

	s.mu.Lock()
	ci, ok := s.courseIdx[courseID]
	if !ok {
		s.mu.Unlock()
		return 0, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	for _, id := range studentIDs {
		if _, ok := s.studentIdx[id]; !ok {
			s.mu.Unlock()
			return 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %d not found", id))
		}
	}

	course := &s.courses[ci]
	for _, id := range studentIDs {
		if course.IsEnrolled(id) {
			continue
		}
		if err := s.backend.AddEnrollment(ctx, courseID, id); err != nil {
			s.mu.Unlock()
			if added > 0 {
				s.notify(ChangeEnrollment)
			}
			return added, appErrors.Persistence(err, "failed to store enrollment")
		}
		course.Enrolled = append(course.Enrolled, id)
		added++
	}
	s.mu.Unlock()

	if added > 0 {
		s.notify(ChangeEnrollment)
	}
	return added, nil
}

// SetScheduleSlot books the course into the classroom slot. An occupied slot
// is overwritten.
func (s *RosterService) SetScheduleSlot(ctx context.Context, classroomID, courseID int64, slot string) (err error) {
	defer func() { s.metrics.RecordRosterOperation("set_schedule_slot", err) }()

	slot = strings.TrimSpace(slot)
	if slot == "" {
		return appErrors.Clone(appErrors.ErrValidation, "slot label is required")
	}

	s.mu.Lock()
	ri, ok := s.classroomIdx[classroomID]
	if !ok {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
	}
	ci, ok := s.courseIdx[courseID]
	if !ok {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	updated := s.classrooms[ri].Clone()
	updated.Schedule[slot] = s.courses[ci].Name
	if err := s.backend.SaveSchedule(ctx, &updated); err != nil {
		s.mu.Unlock()
		return appErrors.Persistence(err, "failed to store schedule")
	}
	s.classrooms[ri] = updated
	s.mu.Unlock()

	s.notify(ChangeSchedule)
	return nil
}

// CheckCapacity returns expected minus the classroom's chairs.
func (s *RosterService) CheckCapacity(classroomID int64, expected int) (int, error) {
	if expected < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "expected students must not be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ri, ok := s.classroomIdx[classroomID]
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
	}
	return models.ChairShortfall(s.classrooms[ri].ChairCapacity, expected), nil
}

// RecordAttendance stores the status for (student, course, date), replacing
// any earlier status for the same triple. Enrollment is not checked.
func (s *RosterService) RecordAttendance(ctx context.Context, req dto.RecordAttendanceRequest) (record *models.AttendanceRecord, err error) {
	defer func() { s.metrics.RecordRosterOperation("record_attendance", err) }()

	req.Date = strings.TrimSpace(req.Date)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid attendance payload")
	}

	s.mu.Lock()
	if _, ok := s.studentIdx[req.StudentID]; !ok {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if _, ok := s.courseIdx[req.CourseID]; !ok {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	rec := models.AttendanceRecord{StudentID: req.StudentID, CourseID: req.CourseID, Date: req.Date, Status: req.Status}
	if err := s.backend.UpsertAttendance(ctx, &rec); err != nil {
		s.mu.Unlock()
		return nil, appErrors.Persistence(err, "failed to store attendance")
	}
	s.putAttendance(rec)
	s.mu.Unlock()

	s.notify(ChangeAttendance)
	return &rec, nil
}

// FetchAttendance returns the records matching every non-nil filter field.
func (s *RosterService) FetchAttendance(filter models.AttendanceFilter) []models.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AttendanceRecord, 0)
	for _, rec := range s.attendance {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// ListStudents returns every student in creation order.
func (s *RosterService) ListStudents() []models.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Student{}, s.students...)
}

// ListCourses returns every course in creation order.
func (s *RosterService) ListCourses() []models.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Course, len(s.courses))
	for i, c := range s.courses {
		out[i] = c.Clone()
	}
	return out
}

// ListClassrooms returns every classroom in creation order.
func (s *RosterService) ListClassrooms() []models.Classroom {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Classroom, len(s.classrooms))
	for i, c := range s.classrooms {
		out[i] = c.Clone()
	}
	return out
}

// GetStudent returns one student.
func (s *RosterService) GetStudent(id int64) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.studentIdx[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	student := s.students[i]
	return &student, nil
}

// GetCourse returns one course with its enrollment list.
func (s *RosterService) GetCourse(id int64) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.courseIdx[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	course := s.courses[i].Clone()
	return &course, nil
}

// GetClassroom returns one classroom with its schedule.
func (s *RosterService) GetClassroom(id int64) (*models.Classroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.classroomIdx[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
	}
	classroom := s.classrooms[i].Clone()
	return &classroom, nil
}

// CourseRoster returns the students enrolled in a course in enrollment order.
func (s *RosterService) CourseRoster(ctx context.Context, courseID int64) ([]models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci, ok := s.courseIdx[courseID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if reader, ok := s.backend.(rosterReader); ok {
		students, err := reader.Roster(ctx, courseID)
		if err != nil {
			return nil, appErrors.Persistence(err, "failed to read course roster")
		}
		return students, nil
	}
	enrolled := s.courses[ci].Enrolled
	out := make([]models.Student, 0, len(enrolled))
	for _, id := range enrolled {
		if i, ok := s.studentIdx[id]; ok {
			out = append(out, s.students[i])
		}
	}
	return out, nil
}

// Save flushes the full state to the backend.
func (s *RosterService) Save(ctx context.Context) (err error) {
	defer func() { s.metrics.RecordRosterOperation("save", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Save(ctx, s.snapshot()); err != nil {
		s.logger.Error("roster save failed", zap.String("backend", s.backend.Name()), zap.Error(err))
		return appErrors.Persistence(err, "failed to save roster")
	}
	return nil
}

// Load replaces the in-memory state with the backend content. Students are
// applied first so course enrollments and attendance can be resolved against
// them; unresolved references are dropped and reported as warnings. When some
// entity types fail to load the others are still applied and the failure is
// returned alongside the report.
func (s *RosterService) Load(ctx context.Context) (report *models.LoadReport, err error) {
	defer func() { s.metrics.RecordRosterOperation("load", err) }()

	snapshot, loadErr := s.backend.Load(ctx)
	if snapshot == nil {
		snapshot = &models.Snapshot{}
	}

	s.mu.Lock()
	report = s.apply(snapshot)
	s.mu.Unlock()

	for _, w := range report.Warnings {
		s.logger.Warn("unresolved reference dropped during load",
			zap.String("entity", w.Entity),
			zap.Int64("entity_id", w.EntityID),
			zap.String("reference", w.Reference),
		)
	}
	s.logger.Info("roster loaded",
		zap.String("backend", s.backend.Name()),
		zap.Int("students", report.Students),
		zap.Int("courses", report.Courses),
		zap.Int("classrooms", report.Classrooms),
		zap.Int("attendance", report.Attendance),
	)

	s.notify(ChangeLoad)
	if loadErr != nil {
		s.logger.Error("roster load incomplete", zap.Error(loadErr))
		return report, appErrors.Persistence(loadErr, "failed to load roster")
	}
	return report, nil
}

func (s *RosterService) apply(snapshot *models.Snapshot) *models.LoadReport {
	s.reset()
	report := &models.LoadReport{Warnings: append([]models.ReferentialWarning{}, snapshot.Warnings...)}

	for _, st := range snapshot.Students {
		if _, dup := s.studentIdx[st.ID]; dup {
			report.Warnings = append(report.Warnings, models.ReferentialWarning{
				Entity: "student", EntityID: st.ID, Reference: fmt.Sprintf("%d", st.ID), Message: "duplicate student id ignored",
			})
			continue
		}
		s.students = append(s.students, st)
		s.studentIdx[st.ID] = len(s.students) - 1
		s.bumpNext(&s.nextStudentID, st.ID)
	}

	for _, room := range snapshot.Classrooms {
		if _, dup := s.classroomIdx[room.ID]; dup {
			report.Warnings = append(report.Warnings, models.ReferentialWarning{
				Entity: "classroom", EntityID: room.ID, Reference: fmt.Sprintf("%d", room.ID), Message: "duplicate classroom id ignored",
			})
			continue
		}
		room = room.Clone()
		s.classrooms = append(s.classrooms, room)
		s.classroomIdx[room.ID] = len(s.classrooms) - 1
		s.bumpNext(&s.nextClassroomID, room.ID)
	}

	for _, course := range snapshot.Courses {
		if _, dup := s.courseIdx[course.ID]; dup {
			report.Warnings = append(report.Warnings, models.ReferentialWarning{
				Entity: "course", EntityID: course.ID, Reference: fmt.Sprintf("%d", course.ID), Message: "duplicate course id ignored",
			})
			continue
		}
		resolved := make([]int64, 0, len(course.Enrolled))
		for _, id := range course.Enrolled {
			if _, ok := s.studentIdx[id]; !ok {
				report.Warnings = append(report.Warnings, models.ReferentialWarning{
					Entity: "course", EntityID: course.ID, Reference: fmt.Sprintf("student:%d", id), Message: "enrolled student not found",
				})
				continue
			}
			if containsID(resolved, id) {
				continue
			}
			resolved = append(resolved, id)
		}
		course.Enrolled = resolved
		s.courses = append(s.courses, course)
		s.courseIdx[course.ID] = len(s.courses) - 1
		s.bumpNext(&s.nextCourseID, course.ID)
	}

	for _, rec := range snapshot.Attendance {
		_, studentOK := s.studentIdx[rec.StudentID]
		_, courseOK := s.courseIdx[rec.CourseID]
		if !studentOK || !courseOK {
			report.Warnings = append(report.Warnings, models.ReferentialWarning{
				Entity:    "attendance",
				Reference: fmt.Sprintf("student:%d/course:%d/%s", rec.StudentID, rec.CourseID, rec.Date),
				Message:   "attendance references an unknown student or course",
			})
			continue
		}
		s.putAttendance(rec)
	}

	report.Students = len(s.students)
	report.Courses = len(s.courses)
	report.Classrooms = len(s.classrooms)
	report.Attendance = len(s.attendance)
	return report
}

func (s *RosterService) snapshot() *models.Snapshot {
	snap := &models.Snapshot{
		Students:   append([]models.Student{}, s.students...),
		Courses:    make([]models.Course, len(s.courses)),
		Classrooms: make([]models.Classroom, len(s.classrooms)),
		Attendance: append([]models.AttendanceRecord{}, s.attendance...),
	}
	for i, c := range s.courses {
		snap.Courses[i] = c.Clone()
	}
	for i, c := range s.classrooms {
		snap.Classrooms[i] = c.Clone()
	}
	return snap
}

func (s *RosterService) putAttendance(rec models.AttendanceRecord) {
	key := rec.Key()
	if i, ok := s.attendanceIdx[key]; ok {
		s.attendance[i].Status = rec.Status
		return
	}
	s.attendance = append(s.attendance, rec)
	s.attendanceIdx[key] = len(s.attendance) - 1
}

func (s *RosterService) courseNameTaken(name string) bool {
	for _, c := range s.courses {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (s *RosterService) classroomNameTaken(name string) bool {
	for _, c := range s.classrooms {
		if c.Name == name {
			return true
		}
	}
	return false
}

// bumpNext keeps the next identifier above every identifier seen so far.
func (s *RosterService) bumpNext(next *int64, id int64) {
	if id >= *next {
		*next = id + 1
	}
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
