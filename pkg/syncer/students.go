package syncer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

func (o *Orchestrator) syncStudents(ctx context.Context) (PhaseResult, error) {
	ctx, span := tracing.StartSpan(ctx, "syncer.Orchestrator.syncStudents")
	defer span.End()

	result := PhaseResult{Phase: PhaseStudents}

	students, err := o.source.ListStudents(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list legacy students: %w", err)
	}
	o.logger.WithContext(ctx).Infof("Found %d students in legacy", len(students))

	existingEmails, err := o.students.ListEmails(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list student emails: %w", err)
	}
	existing := newKeySet(existingEmails)

	customerMap, err := o.customers.EmailIDMap(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to map customer emails: %w", err)
	}

	seen := newKeySet(nil)
	var toInsert []models.Student

	for _, student := range students {
		if strings.TrimSpace(student.Email) == "" {
			result.Skipped++
			continue
		}
		if existing.has(student.Email) || seen.has(student.Email) {
			result.Skipped++
			continue
		}

		customerID, ok := customerMap[strings.ToLower(student.Email)]
		if !ok {
			o.logger.WithContext(ctx).WithFields(map[string]any{
				"rut":   student.Rut,
				"email": student.Email,
			}).Warn("Skipping student: email not found in customers")
			result.Skipped++
			continue
		}

		seen.add(student.Email)
		toInsert = append(toInsert, models.Student{
			Name:           buildName(student.GivenNames, student.PaternalSurname, student.MaternalSurname),
			Email:          student.Email,
			CustomerID:     customerID,
			EnrollmentDate: time.Now().AddDate(0, -3, 0),
			Program:        "General",
			Status:         "Active",
			IsActive:       true,
		})
	}

	if err := writeInBatches(ctx, PhaseStudents, toInsert, o.config.BatchSize, o.students.BulkInsert); err != nil {
		return result, fmt.Errorf("failed to insert students: %w", err)
	}

	result.Inserted = len(toInsert)
	return result, nil
}
