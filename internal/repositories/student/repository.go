// Package student is the destination store for synced students.
package student

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new student repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListEmails returns every student email as stored.
func (r *Repository) ListEmails(ctx context.Context) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "StudentRepository.ListEmails")
	defer span.End()

	var emails []string
	if err := r.db.SelectContext(ctx, &emails, "SELECT email FROM students"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list student emails")
		return nil, fmt.Errorf("failed to list student emails: %w", err)
	}

	return emails, nil
}

// EmailIDMap returns lowercased email -> id for every student.
func (r *Repository) EmailIDMap(ctx context.Context) (map[string]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "StudentRepository.EmailIDMap")
	defer span.End()

	var rows []struct {
		ID    int64  `db:"id"`
		Email string `db:"email"`
	}
	if err := r.db.SelectContext(ctx, &rows, "SELECT id, LOWER(email) AS email FROM students"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to map student emails")
		return nil, fmt.Errorf("failed to map student emails: %w", err)
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Email] = row.ID
	}

	return result, nil
}

// BulkInsert inserts the given students in a single multi-row statement.
func (r *Repository) BulkInsert(ctx context.Context, students []models.Student) error {
	ctx, span := tracing.StartSpan(ctx, "StudentRepository.BulkInsert")
	defer span.End()

	if len(students) == 0 {
		return nil
	}

	builder := database.NewInsertBuilder()
	builder.InsertInto("students")
	builder.Cols("name", "email", "customer_id", "enrollment_date", "program", "status", "is_active")
	for _, student := range students {
		builder.Values(
			student.Name,
			student.Email,
			student.CustomerID,
			student.EnrollmentDate,
			student.Program,
			student.Status,
			student.IsActive,
		)
	}

	query, args := builder.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert students")
		return fmt.Errorf("failed to insert students: %w", err)
	}

	return nil
}
