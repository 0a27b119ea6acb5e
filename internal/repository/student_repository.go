package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-roster/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create inserts a student and stores the generated identifier on it.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (name, last_name, date_of_birth) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.GetContext(ctx, &student.ID, query, student.Name, student.LastName, student.DateOfBirth); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// List returns every student in identifier order.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	const query = `SELECT id, name, last_name, to_char(date_of_birth, 'YYYY-MM-DD') AS date_of_birth FROM students ORDER BY id`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
