package syncer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	// PaymentMethodLegacy is the placeholder written when a legacy payment
	// code has no mapping. It marks a transaction as eligible for a later
	// payment-method correction; anything else is treated as a manual edit
	// and never overwritten.
	PaymentMethodLegacy = "Legacy"

	TransactionTypeSale        = "Sale"
	TransactionStatusCompleted = "Completed"

	saleDescriptionPrefix = "Legacy Sale "
)

// SaleDescription is the canonical description for a synced legacy sale. It
// embeds the legacy sale id and serves as the idempotency token, since
// destination transactions do not store the legacy id directly.
func SaleDescription(saleID int64) string {
	return fmt.Sprintf("%s%d", saleDescriptionPrefix, saleID)
}

// SaleDescriptionPrefix is the filter the destination store uses to find
// previously synced transactions.
func SaleDescriptionPrefix() string {
	return saleDescriptionPrefix
}

// MapPaymentMethod resolves a legacy payment code to a destination payment
// method, falling back to the Legacy placeholder for unknown codes.
func MapPaymentMethod(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "efectivo", "cash":
		return "Cash"
	case "tarjeta", "card", "credito", "debito":
		return "Card"
	case "transferencia", "transfer":
		return "Transfer"
	case "cheque", "check":
		return "Check"
	default:
		return PaymentMethodLegacy
	}
}

// syncTransactions combines an update path (payment-method corrections for
// rows synced with the placeholder) and an insert path (sales not yet synced).
// Updates run before inserts; both are batched.
func (o *Orchestrator) syncTransactions(ctx context.Context) (PhaseResult, error) {
	ctx, span := tracing.StartSpan(ctx, "syncer.Orchestrator.syncTransactions")
	defer span.End()

	result := PhaseResult{Phase: PhaseTransactions}

	sales, err := o.source.ListSales(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list legacy sales: %w", err)
	}
	o.logger.WithContext(ctx).Infof("Found %d sales in legacy", len(sales))

	clients, err := o.source.ListClients(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list legacy clients: %w", err)
	}
	clientEmails := make(map[string]string, len(clients))
	for _, client := range clients {
		clientEmails[client.ClientID] = client.Email
	}

	customerMap, err := o.customers.EmailIDMap(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to map customer emails: %w", err)
	}

	locationMap, err := o.locations.NameIDMap(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to map locations: %w", err)
	}

	refs, err := o.transactions.ListLegacyRefs(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list synced transactions: %w", err)
	}
	refByDescription := make(map[string]models.TransactionRef, len(refs))
	for _, ref := range refs {
		refByDescription[ref.Description] = ref
	}

	var updates []models.PaymentMethodUpdate
	var inserts []models.Transaction

	for _, sale := range sales {
		description := SaleDescription(sale.SaleID)
		paymentMethod := MapPaymentMethod(sale.PaymentCode)

		if ref, ok := refByDescription[description]; ok {
			// Already synced. Correct the payment method only when the stored
			// value is still the placeholder; never re-insert.
			if ref.PaymentMethod == PaymentMethodLegacy && paymentMethod != PaymentMethodLegacy {
				updates = append(updates, models.PaymentMethodUpdate{
					ID:            ref.ID,
					PaymentMethod: paymentMethod,
				})
			}
			continue
		}

		email, ok := clientEmails[sale.ClientID]
		if !ok {
			o.logger.WithContext(ctx).WithFields(map[string]any{
				"sale_id":   sale.SaleID,
				"client_id": sale.ClientID,
			}).Warn("Skipping sale: client id not found in legacy clients")
			result.Skipped++
			continue
		}

		customerID, ok := customerMap[strings.ToLower(email)]
		if !ok {
			o.logger.WithContext(ctx).WithFields(map[string]any{
				"sale_id": sale.SaleID,
				"email":   email,
			}).Warn("Skipping sale: client email not found in customers")
			result.Skipped++
			continue
		}

		var locationID *int64
		if label := strings.TrimSpace(sale.LocationLabel); label != "" {
			if id, ok := locationMap[strings.ToLower(label)]; ok {
				locationID = &id
			}
		}

		inserts = append(inserts, models.Transaction{
			CustomerID:      customerID,
			LocationID:      locationID,
			TransactionDate: sale.SaleDate,
			Amount:          sale.Total,
			TransactionType: TransactionTypeSale,
			PaymentMethod:   paymentMethod,
			Status:          TransactionStatusCompleted,
			Description:     description,
		})
	}

	if err := writeInBatches(ctx, PhaseTransactions, updates, o.config.BatchSize, o.transactions.BulkUpdatePaymentMethods); err != nil {
		return result, fmt.Errorf("failed to update payment methods: %w", err)
	}

	if err := writeInBatches(ctx, PhaseTransactions, inserts, o.config.BatchSize, o.transactions.BulkInsert); err != nil {
		return result, fmt.Errorf("failed to insert transactions: %w", err)
	}

	result.Updated = len(updates)
	result.Inserted = len(inserts)
	return result, nil
}
