package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements creates the relational layout of the roster. Course and
// classroom names are unique here; the document backend does not enforce that.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS students (
        id BIGSERIAL PRIMARY KEY,
        name TEXT NOT NULL CHECK (name <> ''),
        last_name TEXT NOT NULL CHECK (last_name <> ''),
        date_of_birth DATE NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS courses (
        id BIGSERIAL PRIMARY KEY,
        name TEXT NOT NULL UNIQUE CHECK (name <> ''),
        duration TEXT NOT NULL,
        teacher TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS classrooms (
        id BIGSERIAL PRIMARY KEY,
        name TEXT NOT NULL UNIQUE CHECK (name <> ''),
        chair_capacity INTEGER NOT NULL CHECK (chair_capacity >= 0),
        schedule_json JSONB NOT NULL DEFAULT '{}'::jsonb
    )`,
	`CREATE TABLE IF NOT EXISTS course_students (
        course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
        student_id BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
        seq BIGSERIAL NOT NULL,
        PRIMARY KEY (course_id, student_id)
    )`,
	`CREATE TABLE IF NOT EXISTS attendance (
        id BIGSERIAL PRIMARY KEY,
        student_id BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
        course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
        date DATE NOT NULL,
        status TEXT NOT NULL CHECK (status IN ('Present', 'Absent', 'Late', 'Excused')),
        UNIQUE (student_id, course_id, date)
    )`,
}

// EnsureSchema creates any missing roster tables.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
