// Package models holds the row types shared by the repositories and the sync
// engine. Legacy rows are read-only snapshots of the vw_legacy_* views.
package models

import "time"

// LegacyClient is a row of vw_legacy_clientes.
type LegacyClient struct {
	ClientID        string `db:"client_id"`
	GivenNames      string `db:"given_names"`
	PaternalSurname string `db:"paternal_surname"`
	MaternalSurname string `db:"maternal_surname"`
	Email           string `db:"email"`
	Phone           string `db:"phone"`
}

// LegacySale is a row of vw_legacy_ventas.
type LegacySale struct {
	SaleID        int64     `db:"sale_id"`
	ClientID      string    `db:"client_id"`
	Total         int64     `db:"total"`
	SaleDate      time.Time `db:"sale_date"`
	LocationLabel string    `db:"location_label"`
	PaymentCode   string    `db:"payment_code"`
}

// LegacyStudent is a row of vw_legacy_alumnos. Rut is the national-id style
// identifier the legacy system keys students on.
type LegacyStudent struct {
	Rut             string `db:"rut"`
	GivenNames      string `db:"given_names"`
	PaternalSurname string `db:"paternal_surname"`
	MaternalSurname string `db:"maternal_surname"`
	Email           string `db:"email"`
}

// LegacyDiagnostic is a diagnostic assessment header referencing a student by Rut.
type LegacyDiagnostic struct {
	ID         int64     `db:"id"`
	StudentRut string    `db:"student_rut"`
	Date       time.Time `db:"date"`
}

// LegacyDiagnosticAnswer is a single answer belonging to a diagnostic.
type LegacyDiagnosticAnswer struct {
	ID           int64  `db:"id"`
	DiagnosticID int64  `db:"diagnostic_id"`
	Answer       string `db:"answer"`
}

// LegacyCourseDetail is a row of the denormalized course view. The same
// location/room pair repeats once per enrolled student, so the rows must be
// reduced to distinct sets before use.
type LegacyCourseDetail struct {
	LocationName string `db:"location_name"`
	RoomName     string `db:"room_name"`
	Capacity     int    `db:"capacity"`
}
