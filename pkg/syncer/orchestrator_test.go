package syncer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
)

func testLogger() ectologger.Logger {
	return zapadapter.NewZapEctoLogger(zap.NewNop(), nil)
}

// fakeSource serves fixture rows and records the order of list calls.
type fakeSource struct {
	mu          sync.Mutex
	calls       []string
	clients     []models.LegacyClient
	students    []models.LegacyStudent
	sales       []models.LegacySale
	diagnostics []models.LegacyDiagnostic
	answers     []models.LegacyDiagnosticAnswer
	details     []models.LegacyCourseDetail
	errOn       map[string]error
}

func (f *fakeSource) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	return f.errOn[method]
}

func (f *fakeSource) ListClients(ctx context.Context) ([]models.LegacyClient, error) {
	if err := f.record("ListClients"); err != nil {
		return nil, err
	}
	return f.clients, nil
}

func (f *fakeSource) ListStudents(ctx context.Context) ([]models.LegacyStudent, error) {
	if err := f.record("ListStudents"); err != nil {
		return nil, err
	}
	return f.students, nil
}

func (f *fakeSource) ListSales(ctx context.Context) ([]models.LegacySale, error) {
	if err := f.record("ListSales"); err != nil {
		return nil, err
	}
	return f.sales, nil
}

func (f *fakeSource) ListDiagnostics(ctx context.Context) ([]models.LegacyDiagnostic, error) {
	if err := f.record("ListDiagnostics"); err != nil {
		return nil, err
	}
	return f.diagnostics, nil
}

func (f *fakeSource) ListDiagnosticAnswers(ctx context.Context) ([]models.LegacyDiagnosticAnswer, error) {
	if err := f.record("ListDiagnosticAnswers"); err != nil {
		return nil, err
	}
	return f.answers, nil
}

func (f *fakeSource) ListCourseDetails(ctx context.Context) ([]models.LegacyCourseDetail, error) {
	if err := f.record("ListCourseDetails"); err != nil {
		return nil, err
	}
	return f.details, nil
}

type fakeCustomers struct {
	nextID int64
	rows   []models.Customer
}

func (f *fakeCustomers) ListEmails(ctx context.Context) ([]string, error) {
	emails := make([]string, 0, len(f.rows))
	for _, row := range f.rows {
		emails = append(emails, row.Email)
	}
	return emails, nil
}

func (f *fakeCustomers) EmailIDMap(ctx context.Context) (map[string]int64, error) {
	m := make(map[string]int64, len(f.rows))
	for _, row := range f.rows {
		m[strings.ToLower(row.Email)] = row.ID
	}
	return m, nil
}

func (f *fakeCustomers) BulkInsert(ctx context.Context, customers []models.Customer) error {
	for _, customer := range customers {
		f.nextID++
		customer.ID = f.nextID
		f.rows = append(f.rows, customer)
	}
	return nil
}

type fakeStudents struct {
	nextID int64
	rows   []models.Student
}

func (f *fakeStudents) ListEmails(ctx context.Context) ([]string, error) {
	emails := make([]string, 0, len(f.rows))
	for _, row := range f.rows {
		emails = append(emails, row.Email)
	}
	return emails, nil
}

func (f *fakeStudents) EmailIDMap(ctx context.Context) (map[string]int64, error) {
	m := make(map[string]int64, len(f.rows))
	for _, row := range f.rows {
		m[strings.ToLower(row.Email)] = row.ID
	}
	return m, nil
}

func (f *fakeStudents) BulkInsert(ctx context.Context, students []models.Student) error {
	for _, student := range students {
		f.nextID++
		student.ID = f.nextID
		f.rows = append(f.rows, student)
	}
	return nil
}

type fakeLocations struct {
	nextID    int64
	locations []models.Location
	rooms     []models.Room
}

func (f *fakeLocations) NameIDMap(ctx context.Context) (map[string]int64, error) {
	m := make(map[string]int64, len(f.locations))
	for _, location := range f.locations {
		m[strings.ToLower(location.Name)] = location.ID
	}
	return m, nil
}

func (f *fakeLocations) ListRoomKeys(ctx context.Context) ([]string, error) {
	nameByID := make(map[int64]string, len(f.locations))
	for _, location := range f.locations {
		nameByID[location.ID] = location.Name
	}

	keys := make([]string, 0, len(f.rooms))
	for _, room := range f.rooms {
		keys = append(keys, strings.ToLower(nameByID[room.LocationID]+"|"+room.Name))
	}
	return keys, nil
}

func (f *fakeLocations) BulkInsertLocations(ctx context.Context, locations []models.Location) error {
	for _, location := range locations {
		f.nextID++
		location.ID = f.nextID
		f.locations = append(f.locations, location)
	}
	return nil
}

func (f *fakeLocations) BulkInsertRooms(ctx context.Context, rooms []models.Room) error {
	for _, room := range rooms {
		f.nextID++
		room.ID = f.nextID
		f.rooms = append(f.rooms, room)
	}
	return nil
}

type fakeTransactions struct {
	nextID int64
	rows   []models.Transaction
}

func (f *fakeTransactions) ListLegacyRefs(ctx context.Context) ([]models.TransactionRef, error) {
	var refs []models.TransactionRef
	for _, row := range f.rows {
		if strings.HasPrefix(row.Description, SaleDescriptionPrefix()) {
			refs = append(refs, models.TransactionRef{
				ID:            row.ID,
				PaymentMethod: row.PaymentMethod,
				Description:   row.Description,
			})
		}
	}
	return refs, nil
}

func (f *fakeTransactions) BulkInsert(ctx context.Context, transactions []models.Transaction) error {
	for _, transaction := range transactions {
		f.nextID++
		transaction.ID = f.nextID
		f.rows = append(f.rows, transaction)
	}
	return nil
}

func (f *fakeTransactions) BulkUpdatePaymentMethods(ctx context.Context, updates []models.PaymentMethodUpdate) error {
	for _, update := range updates {
		for i := range f.rows {
			if f.rows[i].ID == update.ID {
				f.rows[i].PaymentMethod = update.PaymentMethod
			}
		}
	}
	return nil
}

type fakeDiagnostics struct {
	nextID int64
	rows   []models.DiagnosticResult
}

func (f *fakeDiagnostics) ListAssessmentKeys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(f.rows))
	for _, row := range f.rows {
		keys = append(keys, assessmentKey(row.StudentID, row.AssessmentDate))
	}
	return keys, nil
}

func (f *fakeDiagnostics) BulkInsert(ctx context.Context, results []models.DiagnosticResult) error {
	for _, result := range results {
		f.nextID++
		result.ID = f.nextID
		f.rows = append(f.rows, result)
	}
	return nil
}

type fakeEmitter struct {
	started     []string
	completed   []string
	failedPhase string
	failedCause string
}

func (f *fakeEmitter) EmitSyncStarted(ctx context.Context, runID string) error {
	f.started = append(f.started, runID)
	return nil
}

func (f *fakeEmitter) EmitSyncCompleted(ctx context.Context, runID string, phases []kafka.PhaseCount, duration time.Duration) error {
	f.completed = append(f.completed, runID)
	return nil
}

func (f *fakeEmitter) EmitSyncFailed(ctx context.Context, runID string, failedPhase string, cause string) error {
	f.failedPhase = failedPhase
	f.failedCause = cause
	return nil
}

type testEnv struct {
	source       *fakeSource
	customers    *fakeCustomers
	students     *fakeStudents
	locations    *fakeLocations
	transactions *fakeTransactions
	diagnostics  *fakeDiagnostics
	emitter      *fakeEmitter
	orchestrator *Orchestrator
}

func newTestEnv(cfg Config) *testEnv {
	env := &testEnv{
		source:       &fakeSource{errOn: map[string]error{}},
		customers:    &fakeCustomers{},
		students:     &fakeStudents{},
		locations:    &fakeLocations{},
		transactions: &fakeTransactions{},
		diagnostics:  &fakeDiagnostics{},
		emitter:      &fakeEmitter{},
	}

	env.orchestrator = NewOrchestrator(
		env.source,
		env.customers,
		env.students,
		env.locations,
		env.transactions,
		env.diagnostics,
		NewStatus(),
		env.emitter,
		cfg,
		testLogger(),
	)
	return env
}

func seedLegacy(env *testEnv) {
	saleDate := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	env.source.clients = []models.LegacyClient{
		{ClientID: "1", GivenNames: "Ana", PaternalSurname: "García", MaternalSurname: "López", Email: "ana@example.com", Phone: "111"},
		{ClientID: "2", GivenNames: "Bob", PaternalSurname: "Pérez", Email: "BOB@example.com"},
		{ClientID: "3", GivenNames: "Sin", PaternalSurname: "Correo"},
	}
	env.source.students = []models.LegacyStudent{
		{Rut: "1-9", GivenNames: "Ana", PaternalSurname: "García", Email: "ana@example.com"},
		{Rut: "2-7", GivenNames: "Carla", PaternalSurname: "Soto", Email: "carla@example.com"},
	}
	env.source.details = []models.LegacyCourseDetail{
		{LocationName: "Centro", RoomName: "A1", Capacity: 20},
		{LocationName: "centro", RoomName: "A1", Capacity: 20},
		{LocationName: "Centro", RoomName: "B2", Capacity: 30},
		{LocationName: "", RoomName: "X", Capacity: 5},
	}
	env.source.sales = []models.LegacySale{
		{SaleID: 10, ClientID: "1", Total: 5000, SaleDate: saleDate, LocationLabel: "Centro", PaymentCode: "efectivo"},
		{SaleID: 11, ClientID: "2", Total: 7500, SaleDate: saleDate, PaymentCode: "bitcoin"},
		{SaleID: 12, ClientID: "99", Total: 100, SaleDate: saleDate},
	}
}

func TestRunFullPipeline(t *testing.T) {
	env := newTestEnv(Config{})
	seedLegacy(env)

	require.NoError(t, env.orchestrator.Run(context.Background()))

	// Customers: two with emails inserted, the email-less one skipped.
	require.Len(t, env.customers.rows, 2)
	assert.Equal(t, "Ana García López", env.customers.rows[0].Name)
	assert.Equal(t, "Regular", env.customers.rows[0].CustomerType)
	assert.True(t, env.customers.rows[0].IsActive)

	// Students: Ana resolves to a customer, Carla does not.
	require.Len(t, env.students.rows, 1)
	assert.Equal(t, "ana@example.com", env.students.rows[0].Email)
	assert.Equal(t, env.customers.rows[0].ID, env.students.rows[0].CustomerID)

	// Locations: "Centro" and "centro" collapse into one; two distinct rooms.
	require.Len(t, env.locations.locations, 1)
	assert.Equal(t, "Centro", env.locations.locations[0].Name)
	require.Len(t, env.locations.rooms, 2)
	assert.Equal(t, "Classroom", env.locations.rooms[0].RoomType)

	// Transactions: sale 12 has no client and is skipped.
	require.Len(t, env.transactions.rows, 2)

	snapshot := env.orchestrator.Status().Snapshot()
	assert.False(t, snapshot.IsRunning)
	assert.Equal(t, 100, snapshot.Progress)
	assert.False(t, snapshot.HasError)
	assert.NotNil(t, snapshot.LastSyncDate)
}

func TestRunPhaseOrder(t *testing.T) {
	env := newTestEnv(Config{})
	seedLegacy(env)

	require.NoError(t, env.orchestrator.Run(context.Background()))

	first := func(method string) int {
		for i, call := range env.source.calls {
			if call == method {
				return i
			}
		}
		t.Fatalf("source method %s never called", method)
		return -1
	}

	assert.Less(t, first("ListClients"), first("ListStudents"))
	assert.Less(t, first("ListStudents"), first("ListCourseDetails"))
	assert.Less(t, first("ListCourseDetails"), first("ListSales"))
	assert.NotContains(t, env.source.calls, "ListDiagnostics")
}

func TestRunIsIdempotent(t *testing.T) {
	env := newTestEnv(Config{})
	seedLegacy(env)

	require.NoError(t, env.orchestrator.Run(context.Background()))

	customers := len(env.customers.rows)
	students := len(env.students.rows)
	locations := len(env.locations.locations)
	rooms := len(env.locations.rooms)
	transactions := len(env.transactions.rows)

	require.NoError(t, env.orchestrator.Run(context.Background()))

	assert.Equal(t, customers, len(env.customers.rows))
	assert.Equal(t, students, len(env.students.rows))
	assert.Equal(t, locations, len(env.locations.locations))
	assert.Equal(t, rooms, len(env.locations.rooms))
	assert.Equal(t, transactions, len(env.transactions.rows))
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	env := newTestEnv(Config{})
	seedLegacy(env)

	require.True(t, env.orchestrator.Status().Begin())

	err := env.orchestrator.Run(context.Background())
	assert.ErrorIs(t, err, ErrSyncAlreadyRunning)

	err = env.orchestrator.StartAsync()
	assert.ErrorIs(t, err, ErrSyncAlreadyRunning)
}

func TestRunPhaseFailureKeepsCommittedRows(t *testing.T) {
	env := newTestEnv(Config{})
	seedLegacy(env)
	env.source.errOn["ListSales"] = errors.New("legacy database gone")

	err := env.orchestrator.Run(context.Background())
	require.Error(t, err)

	// Everything committed before the failing phase stays committed.
	assert.NotEmpty(t, env.customers.rows)
	assert.NotEmpty(t, env.students.rows)
	assert.NotEmpty(t, env.locations.locations)
	assert.Empty(t, env.transactions.rows)

	snapshot := env.orchestrator.Status().Snapshot()
	assert.False(t, snapshot.IsRunning)
	assert.True(t, snapshot.HasError)
	require.NotNil(t, snapshot.ErrorMessage)
	assert.Contains(t, *snapshot.ErrorMessage, "legacy database gone")
	assert.Equal(t, 65, snapshot.Progress)

	assert.Equal(t, PhaseTransactions, env.emitter.failedPhase)
}

func TestRunEmitsLifecycleEvents(t *testing.T) {
	env := newTestEnv(Config{})
	seedLegacy(env)

	require.NoError(t, env.orchestrator.Run(context.Background()))

	require.Len(t, env.emitter.started, 1)
	require.Len(t, env.emitter.completed, 1)
	assert.Equal(t, env.emitter.started[0], env.emitter.completed[0])
	assert.Empty(t, env.emitter.failedPhase)
}

func TestSyncCustomersSkipsDuplicateEmailsCaseInsensitively(t *testing.T) {
	env := newTestEnv(Config{})
	env.source.clients = []models.LegacyClient{
		{ClientID: "1", GivenNames: "Ana", Email: "ana@example.com"},
		{ClientID: "2", GivenNames: "Ana Dos", Email: "ANA@EXAMPLE.COM"},
	}

	result, err := env.orchestrator.syncCustomers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, env.customers.rows, 1)
}

func TestSyncCustomersSkipsExistingEmails(t *testing.T) {
	env := newTestEnv(Config{})
	env.customers.rows = []models.Customer{{ID: 1, Email: "Ana@Example.com"}}
	env.customers.nextID = 1
	env.source.clients = []models.LegacyClient{
		{ClientID: "1", GivenNames: "Ana", Email: "ana@example.com"},
	}

	result, err := env.orchestrator.syncCustomers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, env.customers.rows, 1)
}

func TestSyncTransactionsCorrectsPlaceholderPaymentMethod(t *testing.T) {
	env := newTestEnv(Config{})
	saleDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	env.transactions.rows = []models.Transaction{
		{ID: 1, PaymentMethod: PaymentMethodLegacy, Description: SaleDescription(11)},
		{ID: 2, PaymentMethod: "Cash", Description: SaleDescription(10)},
	}
	env.transactions.nextID = 2

	env.source.clients = []models.LegacyClient{{ClientID: "1", Email: "ana@example.com"}}
	env.source.sales = []models.LegacySale{
		{SaleID: 11, ClientID: "1", SaleDate: saleDate, PaymentCode: "tarjeta"},
		{SaleID: 10, ClientID: "1", SaleDate: saleDate, PaymentCode: "transferencia"},
	}

	result, err := env.orchestrator.syncTransactions(context.Background())
	require.NoError(t, err)

	// Sale 11 still carries the placeholder and gets the mapped method; sale
	// 10 was edited to Cash and must not be overwritten.
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, "Card", env.transactions.rows[0].PaymentMethod)
	assert.Equal(t, "Cash", env.transactions.rows[1].PaymentMethod)
	require.Len(t, env.transactions.rows, 2)
}

func TestSyncTransactionsResolvesOptionalLocation(t *testing.T) {
	env := newTestEnv(Config{})
	saleDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	env.customers.rows = []models.Customer{{ID: 7, Email: "ana@example.com"}}
	env.locations.locations = []models.Location{{ID: 3, Name: "Centro"}}
	env.source.clients = []models.LegacyClient{{ClientID: "1", Email: "ana@example.com"}}
	env.source.sales = []models.LegacySale{
		{SaleID: 20, ClientID: "1", Total: 100, SaleDate: saleDate, LocationLabel: "CENTRO", PaymentCode: "efectivo"},
		{SaleID: 21, ClientID: "1", Total: 200, SaleDate: saleDate, LocationLabel: "Desconocida", PaymentCode: "efectivo"},
	}

	result, err := env.orchestrator.syncTransactions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)

	require.Len(t, env.transactions.rows, 2)
	require.NotNil(t, env.transactions.rows[0].LocationID)
	assert.Equal(t, int64(3), *env.transactions.rows[0].LocationID)
	assert.Nil(t, env.transactions.rows[1].LocationID)

	assert.Equal(t, int64(7), env.transactions.rows[0].CustomerID)
	assert.Equal(t, TransactionTypeSale, env.transactions.rows[0].TransactionType)
	assert.Equal(t, TransactionStatusCompleted, env.transactions.rows[0].Status)
	assert.Equal(t, SaleDescription(20), env.transactions.rows[0].Description)
}

func TestSyncDiagnosticsLinksStudentsAndAggregatesAnswers(t *testing.T) {
	env := newTestEnv(Config{DiagnosticsEnabled: true})
	assessmentDate := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	env.students.rows = []models.Student{{ID: 4, Email: "ana@example.com"}}
	env.source.students = []models.LegacyStudent{{Rut: "1-9", Email: "ana@example.com"}}
	env.source.diagnostics = []models.LegacyDiagnostic{
		{ID: 1, StudentRut: "1-9", Date: assessmentDate},
		{ID: 2, StudentRut: "9-9", Date: assessmentDate},
	}
	env.source.answers = []models.LegacyDiagnosticAnswer{
		{ID: 1, DiagnosticID: 1, Answer: "yes"},
		{ID: 2, DiagnosticID: 1, Answer: "no"},
	}

	result, err := env.orchestrator.syncDiagnostics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, env.diagnostics.rows, 1)
	assert.Equal(t, int64(4), env.diagnostics.rows[0].StudentID)
	assert.Equal(t, "Adults", env.diagnostics.rows[0].Type)
	assert.JSONEq(t, `["yes","no"]`, env.diagnostics.rows[0].ResultData)
}

func TestSyncDiagnosticsSkipsExistingAssessments(t *testing.T) {
	env := newTestEnv(Config{DiagnosticsEnabled: true})
	assessmentDate := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	env.students.rows = []models.Student{{ID: 4, Email: "ana@example.com"}}
	env.diagnostics.rows = []models.DiagnosticResult{{ID: 1, StudentID: 4, AssessmentDate: assessmentDate}}
	env.diagnostics.nextID = 1
	env.source.students = []models.LegacyStudent{{Rut: "1-9", Email: "ana@example.com"}}
	env.source.diagnostics = []models.LegacyDiagnostic{
		{ID: 1, StudentRut: "1-9", Date: assessmentDate},
	}

	result, err := env.orchestrator.syncDiagnostics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, env.diagnostics.rows, 1)
}

func TestWriteInBatchesSplitsOnBatchSize(t *testing.T) {
	items := make([]int, 2500)
	var sizes []int

	err := writeInBatches(context.Background(), "test", items, 1000, func(ctx context.Context, batch []int) error {
		sizes = append(sizes, len(batch))
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1000, 1000, 500}, sizes)
}

func TestWriteInBatchesStopsOnError(t *testing.T) {
	items := make([]int, 30)
	var calls int

	err := writeInBatches(context.Background(), "test", items, 10, func(ctx context.Context, batch []int) error {
		calls++
		if calls == 2 {
			return errors.New("write failed")
		}
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestChunkEmptyInput(t *testing.T) {
	assert.Empty(t, chunk([]int(nil), 10))
}
