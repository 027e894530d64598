// Package diagnostic is the destination store for synced diagnostic results.
package diagnostic

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

// NewRepository creates a new diagnostic repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const assessmentKeysQuery = `
SELECT student_id::text || '|' || to_char(assessment_date, 'YYYY-MM-DD') AS key
FROM diagnostic_results`

// ListAssessmentKeys returns "studentID|YYYY-MM-DD" identity keys for every
// stored diagnostic result.
func (r *Repository) ListAssessmentKeys(ctx context.Context) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "DiagnosticRepository.ListAssessmentKeys")
	defer span.End()

	var keys []string
	if err := r.db.SelectContext(ctx, &keys, assessmentKeysQuery); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list assessment keys")
		return nil, fmt.Errorf("failed to list assessment keys: %w", err)
	}

	return keys, nil
}

// BulkInsert inserts the given diagnostic results in a single multi-row statement.
func (r *Repository) BulkInsert(ctx context.Context, results []models.DiagnosticResult) error {
	ctx, span := tracing.StartSpan(ctx, "DiagnosticRepository.BulkInsert")
	defer span.End()

	if len(results) == 0 {
		return nil
	}

	builder := database.NewInsertBuilder()
	builder.InsertInto("diagnostic_results")
	builder.Cols("student_id", "assessment_date", "score", "type", "result_data")
	for _, result := range results {
		builder.Values(
			result.StudentID,
			result.AssessmentDate,
			result.Score,
			result.Type,
			result.ResultData,
		)
	}

	query, args := builder.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert diagnostic results")
		return fmt.Errorf("failed to insert diagnostic results: %w", err)
	}

	return nil
}
