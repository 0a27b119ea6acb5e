package models

// Schedule maps a free-form slot label (e.g. "Monday 09:00 - 11:00") to a course name.
type Schedule map[string]string

// Clone copies the schedule.
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for slot, course := range s {
		out[slot] = course
	}
	return out
}

// Classroom is a room with a fixed number of chairs and its own schedule.
type Classroom struct {
	ID            int64    `db:"id" json:"id"`
	Name          string   `db:"name" json:"name"`
	ChairCapacity int      `db:"chair_capacity" json:"chair_capacity"`
	Schedule      Schedule `db:"-" json:"schedule"`
}

// Clone returns a copy that does not share the schedule map.
func (c Classroom) Clone() Classroom {
	c.Schedule = c.Schedule.Clone()
	return c
}

// ChairShortfall returns expected minus capacity: positive when chairs are
// missing, zero on an exact fit, negative when chairs are left over.
func ChairShortfall(capacity, expected int) int {
	return expected - capacity
}
