package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/internal/handlers"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/syncer"
)

func testLogger() ectologger.Logger {
	return zapadapter.NewZapEctoLogger(zap.NewNop(), nil)
}

// Empty stores make the pipeline a no-op so handler behavior can be tested
// without a database.

type stubSource struct{}

func (stubSource) ListClients(ctx context.Context) ([]models.LegacyClient, error) { return nil, nil }
func (stubSource) ListStudents(ctx context.Context) ([]models.LegacyStudent, error) {
	return nil, nil
}
func (stubSource) ListSales(ctx context.Context) ([]models.LegacySale, error) { return nil, nil }
func (stubSource) ListDiagnostics(ctx context.Context) ([]models.LegacyDiagnostic, error) {
	return nil, nil
}
func (stubSource) ListDiagnosticAnswers(ctx context.Context) ([]models.LegacyDiagnosticAnswer, error) {
	return nil, nil
}
func (stubSource) ListCourseDetails(ctx context.Context) ([]models.LegacyCourseDetail, error) {
	return nil, nil
}

type stubCustomers struct{}

func (stubCustomers) ListEmails(ctx context.Context) ([]string, error)          { return nil, nil }
func (stubCustomers) EmailIDMap(ctx context.Context) (map[string]int64, error)  { return nil, nil }
func (stubCustomers) BulkInsert(ctx context.Context, _ []models.Customer) error { return nil }

type stubStudents struct{}

func (stubStudents) ListEmails(ctx context.Context) ([]string, error)         { return nil, nil }
func (stubStudents) EmailIDMap(ctx context.Context) (map[string]int64, error) { return nil, nil }
func (stubStudents) BulkInsert(ctx context.Context, _ []models.Student) error { return nil }

type stubLocations struct{}

func (stubLocations) NameIDMap(ctx context.Context) (map[string]int64, error) { return nil, nil }
func (stubLocations) ListRoomKeys(ctx context.Context) ([]string, error)      { return nil, nil }
func (stubLocations) BulkInsertLocations(ctx context.Context, _ []models.Location) error {
	return nil
}
func (stubLocations) BulkInsertRooms(ctx context.Context, _ []models.Room) error { return nil }

type stubTransactions struct{}

func (stubTransactions) ListLegacyRefs(ctx context.Context) ([]models.TransactionRef, error) {
	return nil, nil
}
func (stubTransactions) BulkInsert(ctx context.Context, _ []models.Transaction) error { return nil }
func (stubTransactions) BulkUpdatePaymentMethods(ctx context.Context, _ []models.PaymentMethodUpdate) error {
	return nil
}

type stubDiagnostics struct{}

func (stubDiagnostics) ListAssessmentKeys(ctx context.Context) ([]string, error) { return nil, nil }
func (stubDiagnostics) BulkInsert(ctx context.Context, _ []models.DiagnosticResult) error {
	return nil
}

func newTestOrchestrator() *syncer.Orchestrator {
	return syncer.NewOrchestrator(
		stubSource{},
		stubCustomers{},
		stubStudents{},
		stubLocations{},
		stubTransactions{},
		stubDiagnostics{},
		syncer.NewStatus(),
		nil,
		syncer.Config{},
		testLogger(),
	)
}

func TestTriggerSyncAccepted(t *testing.T) {
	e := echo.New()
	orchestrator := newTestOrchestrator()
	handler := handlers.NewSyncHandler(orchestrator, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/trigger", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler.TriggerSync(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body models.SyncTriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "sync started", body.Message)

	// The background run against empty stores finishes almost immediately.
	deadline := time.Now().Add(2 * time.Second)
	for orchestrator.Status().Snapshot().IsRunning {
		if time.Now().After(deadline) {
			t.Fatal("background sync never finished")
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 100, orchestrator.Status().Snapshot().Progress)
}

func TestTriggerSyncConflictWhileRunning(t *testing.T) {
	e := echo.New()
	orchestrator := newTestOrchestrator()
	handler := handlers.NewSyncHandler(orchestrator, testLogger())

	// Claim the run so the trigger hits the single-flight rejection.
	require.True(t, orchestrator.Status().Begin())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/trigger", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.TriggerSync(c)
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestGetSyncStatus(t *testing.T) {
	e := echo.New()
	orchestrator := newTestOrchestrator()
	handler := handlers.NewSyncHandler(orchestrator, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler.GetSyncStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "isRunning")
	assert.Contains(t, body, "lastSyncDate")
	assert.Contains(t, body, "currentSyncStarted")
	assert.Contains(t, body, "currentStep")
	assert.Contains(t, body, "progress")
	assert.Contains(t, body, "message")
	assert.Contains(t, body, "hasError")
	assert.Contains(t, body, "errorMessage")
	assert.Equal(t, false, body["isRunning"])
}
