package syncer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// buildName assembles a display name from the legacy given-name and surname
// columns, collapsing the blanks missing parts leave behind.
func buildName(givenNames, paternalSurname, maternalSurname string) string {
	return strings.Join(strings.Fields(givenNames+" "+paternalSurname+" "+maternalSurname), " ")
}

func (o *Orchestrator) syncCustomers(ctx context.Context) (PhaseResult, error) {
	ctx, span := tracing.StartSpan(ctx, "syncer.Orchestrator.syncCustomers")
	defer span.End()

	result := PhaseResult{Phase: PhaseCustomers}

	clients, err := o.source.ListClients(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list legacy clients: %w", err)
	}
	o.logger.WithContext(ctx).Infof("Found %d clients in legacy", len(clients))

	existingEmails, err := o.customers.ListEmails(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list customer emails: %w", err)
	}
	existing := newKeySet(existingEmails)

	seen := newKeySet(nil)
	var toInsert []models.Customer

	for _, client := range clients {
		if strings.TrimSpace(client.Email) == "" {
			result.Skipped++
			continue
		}
		if existing.has(client.Email) || seen.has(client.Email) {
			result.Skipped++
			continue
		}

		seen.add(client.Email)
		toInsert = append(toInsert, models.Customer{
			Name:             buildName(client.GivenNames, client.PaternalSurname, client.MaternalSurname),
			Email:            client.Email,
			Phone:            client.Phone,
			RegistrationDate: time.Now().AddDate(0, -6, 0),
			CustomerType:     "Regular",
			IsActive:         true,
		})
	}

	if err := writeInBatches(ctx, PhaseCustomers, toInsert, o.config.BatchSize, o.customers.BulkInsert); err != nil {
		return result, fmt.Errorf("failed to insert customers: %w", err)
	}

	result.Inserted = len(toInsert)
	return result, nil
}
