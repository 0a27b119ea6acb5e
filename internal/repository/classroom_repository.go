package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-roster/internal/models"
)

// ClassroomRepository manages classrooms and their schedules.
type ClassroomRepository struct {
	db *sqlx.DB
}

type classroomRow struct {
	ID            int64  `db:"id"`
	Name          string `db:"name"`
	ChairCapacity int    `db:"chair_capacity"`
	ScheduleJSON  []byte `db:"schedule_json"`
}

// NewClassroomRepository constructs a ClassroomRepository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// Create inserts a classroom with its current schedule.
func (r *ClassroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	payload, err := encodeSchedule(classroom.Schedule)
	if err != nil {
		return err
	}
	const query = `INSERT INTO classrooms (name, chair_capacity, schedule_json) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.GetContext(ctx, &classroom.ID, query, classroom.Name, classroom.ChairCapacity, payload); err != nil {
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

// UpdateSchedule replaces the stored schedule of a classroom.
func (r *ClassroomRepository) UpdateSchedule(ctx context.Context, id int64, schedule models.Schedule) error {
	payload, err := encodeSchedule(schedule)
	if err != nil {
		return err
	}
	const query = `UPDATE classrooms SET schedule_json = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, payload); err != nil {
		return fmt.Errorf("update schedule of classroom %d: %w", id, err)
	}
	return nil
}

// List returns every classroom in identifier order.
func (r *ClassroomRepository) List(ctx context.Context) ([]models.Classroom, error) {
	const query = `SELECT id, name, chair_capacity, schedule_json FROM classrooms ORDER BY id`
	var rows []classroomRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	classrooms := make([]models.Classroom, 0, len(rows))
	for _, row := range rows {
		schedule := models.Schedule{}
		if len(row.ScheduleJSON) > 0 {
			if err := json.Unmarshal(row.ScheduleJSON, &schedule); err != nil {
				return nil, fmt.Errorf("decode schedule of classroom %d: %w", row.ID, err)
			}
		}
		classrooms = append(classrooms, models.Classroom{
			ID:            row.ID,
			Name:          row.Name,
			ChairCapacity: row.ChairCapacity,
			Schedule:      schedule,
		})
	}
	return classrooms, nil
}

func encodeSchedule(schedule models.Schedule) (string, error) {
	if schedule == nil {
		schedule = models.Schedule{}
	}
	payload, err := json.Marshal(schedule)
	if err != nil {
		return "", fmt.Errorf("encode schedule: %w", err)
	}
	return string(payload), nil
}
