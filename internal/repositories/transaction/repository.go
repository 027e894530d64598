// Package transaction is the destination store for synced transactions.
package transaction

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/syncer"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new transaction repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListLegacyRefs returns the id, payment method, and description of every
// transaction whose description follows the legacy sale naming convention.
func (r *Repository) ListLegacyRefs(ctx context.Context) ([]models.TransactionRef, error) {
	ctx, span := tracing.StartSpan(ctx, "TransactionRepository.ListLegacyRefs")
	defer span.End()

	builder := database.NewSelectBuilder()
	builder.Select("id", "payment_method", "description")
	builder.From("transactions")
	builder.Where(builder.Like("description", syncer.SaleDescriptionPrefix()+"%"))

	query, args := builder.Build()
	var refs []models.TransactionRef
	if err := r.db.SelectContext(ctx, &refs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list legacy transaction refs")
		return nil, fmt.Errorf("failed to list legacy transaction refs: %w", err)
	}

	return refs, nil
}

// BulkInsert inserts the given transactions in a single multi-row statement.
func (r *Repository) BulkInsert(ctx context.Context, transactions []models.Transaction) error {
	ctx, span := tracing.StartSpan(ctx, "TransactionRepository.BulkInsert")
	defer span.End()

	if len(transactions) == 0 {
		return nil
	}

	builder := database.NewInsertBuilder()
	builder.InsertInto("transactions")
	builder.Cols(
		"customer_id",
		"location_id",
		"transaction_date",
		"amount",
		"transaction_type",
		"payment_method",
		"status",
		"description",
	)
	for _, transaction := range transactions {
		builder.Values(
			transaction.CustomerID,
			transaction.LocationID,
			transaction.TransactionDate,
			transaction.Amount,
			transaction.TransactionType,
			transaction.PaymentMethod,
			transaction.Status,
			transaction.Description,
		)
	}

	query, args := builder.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert transactions")
		return fmt.Errorf("failed to insert transactions: %w", err)
	}

	return nil
}

// BulkUpdatePaymentMethods applies the queued payment-method corrections in a
// single transaction.
func (r *Repository) BulkUpdatePaymentMethods(ctx context.Context, updates []models.PaymentMethodUpdate) error {
	ctx, span := tracing.StartSpan(ctx, "TransactionRepository.BulkUpdatePaymentMethods")
	defer span.End()

	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to begin payment method update transaction")
		return fmt.Errorf("failed to begin payment method update transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, update := range updates {
		builder := database.NewUpdateBuilder()
		builder.Update("transactions")
		builder.Set(builder.Assign("payment_method", update.PaymentMethod))
		builder.Where(builder.Equal("id", update.ID))

		query, args := builder.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithField("transactionId", update.ID).
				Error("failed to update payment method")
			return fmt.Errorf("failed to update payment method for transaction %d: %w", update.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to commit payment method updates")
		return fmt.Errorf("failed to commit payment method updates: %w", err)
	}

	return nil
}
