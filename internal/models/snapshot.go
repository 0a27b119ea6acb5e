package models

// Snapshot is the full persisted state exchanged between the roster store and a backend.
type Snapshot struct {
	Students   []Student
	Courses    []Course
	Classrooms []Classroom
	Attendance []AttendanceRecord
	// Warnings carries references the backend already had to drop while decoding.
	Warnings []ReferentialWarning
}

// ReferentialWarning describes a stored reference that could not be resolved
// during load. The affected link is dropped; loading continues.
type ReferentialWarning struct {
	Entity    string `json:"entity"`
	EntityID  int64  `json:"entity_id"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

// LoadReport summarises a completed load.
type LoadReport struct {
	Students   int                  `json:"students"`
	Courses    int                  `json:"courses"`
	Classrooms int                  `json:"classrooms"`
	Attendance int                  `json:"attendance"`
	Warnings   []ReferentialWarning `json:"warnings,omitempty"`
}
