package syncer

import (
	"context"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

// SourceStore is the read-only contract against the legacy views. Every list
// is a full scan; the engine does no delta fetching.
type SourceStore interface {
	ListClients(ctx context.Context) ([]models.LegacyClient, error)
	ListStudents(ctx context.Context) ([]models.LegacyStudent, error)
	ListSales(ctx context.Context) ([]models.LegacySale, error)
	ListDiagnostics(ctx context.Context) ([]models.LegacyDiagnostic, error)
	ListDiagnosticAnswers(ctx context.Context) ([]models.LegacyDiagnosticAnswer, error)
	ListCourseDetails(ctx context.Context) ([]models.LegacyCourseDetail, error)
}

// CustomerStore is the destination contract for the customers phase.
// Map keys are lowercased emails.
type CustomerStore interface {
	ListEmails(ctx context.Context) ([]string, error)
	EmailIDMap(ctx context.Context) (map[string]int64, error)
	BulkInsert(ctx context.Context, customers []models.Customer) error
}

// StudentStore is the destination contract for the students phase.
type StudentStore interface {
	ListEmails(ctx context.Context) ([]string, error)
	EmailIDMap(ctx context.Context) (map[string]int64, error)
	BulkInsert(ctx context.Context, students []models.Student) error
}

// LocationStore is the destination contract for the locations & rooms phase.
// NameIDMap keys are lowercased location names; room keys are
// "location|room", lowercased.
type LocationStore interface {
	NameIDMap(ctx context.Context) (map[string]int64, error)
	ListRoomKeys(ctx context.Context) ([]string, error)
	BulkInsertLocations(ctx context.Context, locations []models.Location) error
	BulkInsertRooms(ctx context.Context, rooms []models.Room) error
}

// TransactionStore is the destination contract for the transactions phase.
// ListLegacyRefs returns only rows whose description follows the legacy sale
// naming convention.
type TransactionStore interface {
	ListLegacyRefs(ctx context.Context) ([]models.TransactionRef, error)
	BulkInsert(ctx context.Context, transactions []models.Transaction) error
	BulkUpdatePaymentMethods(ctx context.Context, updates []models.PaymentMethodUpdate) error
}

// DiagnosticStore is the destination contract for the diagnostics phase.
// Assessment keys are "studentID|YYYY-MM-DD".
type DiagnosticStore interface {
	ListAssessmentKeys(ctx context.Context) ([]string, error)
	BulkInsert(ctx context.Context, results []models.DiagnosticResult) error
}

// keySet is a case-insensitive string set used for identity-key existence
// checks and same-run staging.
type keySet map[string]struct{}

func newKeySet(keys []string) keySet {
	set := make(keySet, len(keys))
	for _, key := range keys {
		set.add(key)
	}
	return set
}

func (s keySet) add(key string) {
	s[strings.ToLower(key)] = struct{}{}
}

func (s keySet) has(key string) bool {
	_, ok := s[strings.ToLower(key)]
	return ok
}
