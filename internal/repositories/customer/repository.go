// Package customer is the destination store for synced customers.
package customer

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

// NewRepository creates a new customer repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListEmails returns every customer email as stored.
func (r *Repository) ListEmails(ctx context.Context) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "CustomerRepository.ListEmails")
	defer span.End()

	var emails []string
	if err := r.db.SelectContext(ctx, &emails, "SELECT email FROM customers"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list customer emails")
		return nil, fmt.Errorf("failed to list customer emails: %w", err)
	}

	return emails, nil
}

// EmailIDMap returns lowercased email -> id for every customer.
func (r *Repository) EmailIDMap(ctx context.Context) (map[string]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "CustomerRepository.EmailIDMap")
	defer span.End()

	var rows []struct {
		ID    int64  `db:"id"`
		Email string `db:"email"`
	}
	if err := r.db.SelectContext(ctx, &rows, "SELECT id, LOWER(email) AS email FROM customers"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to map customer emails")
		return nil, fmt.Errorf("failed to map customer emails: %w", err)
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Email] = row.ID
	}

	return result, nil
}

// BulkInsert inserts the given customers in a single multi-row statement.
func (r *Repository) BulkInsert(ctx context.Context, customers []models.Customer) error {
	ctx, span := tracing.StartSpan(ctx, "CustomerRepository.BulkInsert")
	defer span.End()

	if len(customers) == 0 {
		return nil
	}

	builder := database.NewInsertBuilder()
	builder.InsertInto("customers")
	builder.Cols("name", "email", "phone", "registration_date", "customer_type", "is_active")
	for _, customer := range customers {
		builder.Values(
			customer.Name,
			customer.Email,
			customer.Phone,
			customer.RegistrationDate,
			customer.CustomerType,
			customer.IsActive,
		)
	}

	query, args := builder.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert customers")
		return fmt.Errorf("failed to insert customers: %w", err)
	}

	return nil
}
