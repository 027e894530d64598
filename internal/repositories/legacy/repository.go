// Package legacy is the read-only source store over the vw_legacy_* views.
// The views project the legacy schema's original column names, so every query
// aliases them to the snake_case fields the models expect. No query here ever
// writes.
package legacy

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository implements the syncer.SourceStore contract.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new legacy source repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const clientsQuery = `
SELECT "idCliente"::text      AS client_id,
       COALESCE("Nombres", '')   AS given_names,
       COALESCE("ApPaterno", '') AS paternal_surname,
       COALESCE("ApMaterno", '') AS maternal_surname,
       COALESCE("Email", '')     AS email,
       COALESCE("Fono", '')      AS phone
FROM vw_legacy_clientes`

// ListClients returns every row of the legacy clients view.
func (r *Repository) ListClients(ctx context.Context) ([]models.LegacyClient, error) {
	ctx, span := tracing.StartSpan(ctx, "LegacyRepository.ListClients")
	defer span.End()

	var clients []models.LegacyClient
	if err := r.db.SelectContext(ctx, &clients, clientsQuery); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list legacy clients")
		return nil, fmt.Errorf("failed to list legacy clients: %w", err)
	}

	return clients, nil
}

const studentsQuery = `
SELECT "Rut"                     AS rut,
       COALESCE("Nombres", '')      AS given_names,
       COALESCE("AP_Paterno", '')   AS paternal_surname,
       COALESCE("AP_Materno", '')   AS maternal_surname,
       COALESCE("Email", '')        AS email
FROM vw_legacy_alumnos`

// ListStudents returns every row of the legacy students view.
func (r *Repository) ListStudents(ctx context.Context) ([]models.LegacyStudent, error) {
	ctx, span := tracing.StartSpan(ctx, "LegacyRepository.ListStudents")
	defer span.End()

	var students []models.LegacyStudent
	if err := r.db.SelectContext(ctx, &students, studentsQuery); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list legacy students")
		return nil, fmt.Errorf("failed to list legacy students: %w", err)
	}

	return students, nil
}

const salesQuery = `
SELECT "idVenta"                 AS sale_id,
       "idCliente"::text         AS client_id,
       "Total"                   AS total,
       "FechaVenta"              AS sale_date,
       COALESCE("Sede", '')      AS location_label,
       COALESCE("FormaPago", '') AS payment_code
FROM vw_legacy_ventas`

// ListSales returns every row of the legacy sales view.
func (r *Repository) ListSales(ctx context.Context) ([]models.LegacySale, error) {
	ctx, span := tracing.StartSpan(ctx, "LegacyRepository.ListSales")
	defer span.End()

	var sales []models.LegacySale
	if err := r.db.SelectContext(ctx, &sales, salesQuery); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list legacy sales")
		return nil, fmt.Errorf("failed to list legacy sales: %w", err)
	}

	return sales, nil
}

const diagnosticsQuery = `
SELECT "id"       AS id,
       "idAlumno"::text AS student_rut,
       "fecha"    AS date
FROM vw_legacy_diagnosticos`

// ListDiagnostics returns every row of the legacy diagnostics view.
func (r *Repository) ListDiagnostics(ctx context.Context) ([]models.LegacyDiagnostic, error) {
	ctx, span := tracing.StartSpan(ctx, "LegacyRepository.ListDiagnostics")
	defer span.End()

	var diagnostics []models.LegacyDiagnostic
	if err := r.db.SelectContext(ctx, &diagnostics, diagnosticsQuery); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list legacy diagnostics")
		return nil, fmt.Errorf("failed to list legacy diagnostics: %w", err)
	}

	return diagnostics, nil
}

const diagnosticAnswersQuery = `
SELECT "id"                       AS id,
       "diagnosticoID"            AS diagnostic_id,
       COALESCE("respuesta", '')  AS answer
FROM vw_legacy_respuestas`

// ListDiagnosticAnswers returns every row of the legacy answers view.
func (r *Repository) ListDiagnosticAnswers(ctx context.Context) ([]models.LegacyDiagnosticAnswer, error) {
	ctx, span := tracing.StartSpan(ctx, "LegacyRepository.ListDiagnosticAnswers")
	defer span.End()

	var answers []models.LegacyDiagnosticAnswer
	if err := r.db.SelectContext(ctx, &answers, diagnosticAnswersQuery); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list legacy diagnostic answers")
		return nil, fmt.Errorf("failed to list legacy diagnostic answers: %w", err)
	}

	return answers, nil
}

const courseDetailsQuery = `
SELECT COALESCE("Sede", '')      AS location_name,
       COALESCE("Sala", '')      AS room_name,
       COALESCE("Capacidad", 0)  AS capacity
FROM vw_legacy_detalle_cursos`

// ListCourseDetails returns every row of the denormalized course view.
func (r *Repository) ListCourseDetails(ctx context.Context) ([]models.LegacyCourseDetail, error) {
	ctx, span := tracing.StartSpan(ctx, "LegacyRepository.ListCourseDetails")
	defer span.End()

	var details []models.LegacyCourseDetail
	if err := r.db.SelectContext(ctx, &details, courseDetailsQuery); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list legacy course details")
		return nil, fmt.Errorf("failed to list legacy course details: %w", err)
	}

	return details, nil
}
