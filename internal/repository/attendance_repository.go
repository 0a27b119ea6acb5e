package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-roster/internal/models"
)

// AttendanceRepository stores one status per (student, course, date).
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert inserts the record or replaces the status of the existing one.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	const query = `INSERT INTO attendance (student_id, course_id, date, status) VALUES ($1, $2, $3, $4)
        ON CONFLICT (student_id, course_id, date) DO UPDATE SET status = EXCLUDED.status`
	if _, err := r.db.ExecContext(ctx, query, record.StudentID, record.CourseID, record.Date, record.Status); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// List returns records matching the filter in row order.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.CourseID != nil {
		args = append(args, *filter.CourseID)
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)))
	}
	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT student_id, course_id, to_char(date, 'YYYY-MM-DD') AS date, status FROM attendance WHERE %s ORDER BY id`,
		strings.Join(conditions, " AND "))
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}
