package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// assessmentKey builds the (student id, assessment date) identity key. The
// source view lacks a stable importable primary key, so this pair is the
// de-dup token for diagnostic results.
func assessmentKey(studentID int64, date time.Time) string {
	return fmt.Sprintf("%d|%s", studentID, date.Format("2006-01-02"))
}

// syncDiagnostics links legacy diagnostics to destination students through
// Rut -> legacy email -> destination student, and aggregates each diagnostic's
// answers into a JSON blob. Disabled by default; see Config.DiagnosticsEnabled.
func (o *Orchestrator) syncDiagnostics(ctx context.Context) (PhaseResult, error) {
	ctx, span := tracing.StartSpan(ctx, "syncer.Orchestrator.syncDiagnostics")
	defer span.End()

	result := PhaseResult{Phase: PhaseDiagnostics}

	diagnostics, err := o.source.ListDiagnostics(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list legacy diagnostics: %w", err)
	}

	answers, err := o.source.ListDiagnosticAnswers(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list legacy diagnostic answers: %w", err)
	}
	o.logger.WithContext(ctx).Infof("Found %d diagnostics and %d answers in legacy", len(diagnostics), len(answers))

	answersByDiagnostic := make(map[int64][]string)
	for _, answer := range answers {
		answersByDiagnostic[answer.DiagnosticID] = append(answersByDiagnostic[answer.DiagnosticID], answer.Answer)
	}

	legacyStudents, err := o.source.ListStudents(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list legacy students: %w", err)
	}
	emailByRut := make(map[string]string, len(legacyStudents))
	for _, student := range legacyStudents {
		emailByRut[student.Rut] = student.Email
	}

	studentMap, err := o.students.EmailIDMap(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to map student emails: %w", err)
	}

	existingKeys, err := o.diagnostics.ListAssessmentKeys(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list assessment keys: %w", err)
	}
	existing := newKeySet(existingKeys)

	seen := newKeySet(nil)
	var toInsert []models.DiagnosticResult

	for _, diagnostic := range diagnostics {
		email, ok := emailByRut[diagnostic.StudentRut]
		if !ok {
			o.logger.WithContext(ctx).WithFields(map[string]any{
				"diagnostic_id": diagnostic.ID,
				"rut":           diagnostic.StudentRut,
			}).Warn("Skipping diagnostic: rut not found in legacy students")
			result.Skipped++
			continue
		}

		studentID, ok := studentMap[strings.ToLower(email)]
		if !ok {
			o.logger.WithContext(ctx).WithFields(map[string]any{
				"diagnostic_id": diagnostic.ID,
				"email":         email,
			}).Warn("Skipping diagnostic: email not found in students")
			result.Skipped++
			continue
		}

		key := assessmentKey(studentID, diagnostic.Date)
		if existing.has(key) || seen.has(key) {
			result.Skipped++
			continue
		}

		resultData, err := json.Marshal(answersByDiagnostic[diagnostic.ID])
		if err != nil {
			return result, fmt.Errorf("failed to serialize answers for diagnostic %d: %w", diagnostic.ID, err)
		}

		seen.add(key)
		toInsert = append(toInsert, models.DiagnosticResult{
			StudentID:      studentID,
			AssessmentDate: diagnostic.Date,
			Score:          0,
			Type:           "Adults",
			ResultData:     string(resultData),
		})
	}

	if err := writeInBatches(ctx, PhaseDiagnostics, toInsert, o.config.BatchSize, o.diagnostics.BulkInsert); err != nil {
		return result, fmt.Errorf("failed to insert diagnostics: %w", err)
	}

	result.Inserted = len(toInsert)
	return result, nil
}
