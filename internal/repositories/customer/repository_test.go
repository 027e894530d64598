package customer_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/internal/repositories/customer"
	"github.com/Ramsey-B/fern/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) *sqlx.DB {
	// Use environment variables or defaults for test DB
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "financial"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "failed to connect to test database")

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestCustomerRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database integration test in short mode")
	}

	db := getTestDB(t)
	repo := customer.NewRepository(db, getTestLogger())
	ctx := context.Background()

	// Unique emails per run so the test survives repeated executions.
	suffix := uuid.New().String()[:8]
	emailOne := "it-" + suffix + "-one@example.com"
	emailTwo := "IT-" + suffix + "-Two@Example.com"

	err := repo.BulkInsert(ctx, []models.Customer{
		{
			Name:             "Integration One",
			Email:            emailOne,
			Phone:            "111",
			RegistrationDate: time.Now().AddDate(0, -6, 0),
			CustomerType:     "Regular",
			IsActive:         true,
		},
		{
			Name:             "Integration Two",
			Email:            emailTwo,
			RegistrationDate: time.Now().AddDate(0, -6, 0),
			CustomerType:     "Regular",
			IsActive:         true,
		},
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM customers WHERE email LIKE $1", "it-"+suffix+"-%")
		_, _ = db.Exec("DELETE FROM customers WHERE email LIKE $1", "IT-"+suffix+"-%")
	})

	emails, err := repo.ListEmails(ctx)
	require.NoError(t, err)
	assert.Contains(t, emails, emailOne)
	assert.Contains(t, emails, emailTwo)

	// The map is keyed by lowercased email regardless of stored casing.
	idMap, err := repo.EmailIDMap(ctx)
	require.NoError(t, err)
	assert.Contains(t, idMap, emailOne)
	assert.Contains(t, idMap, "it-"+suffix+"-two@example.com")
	assert.NotContains(t, idMap, emailTwo)
}

func TestCustomerRepositoryBulkInsertEmpty(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database integration test in short mode")
	}

	db := getTestDB(t)
	repo := customer.NewRepository(db, getTestLogger())

	// An empty batch is a no-op, not an error.
	require.NoError(t, repo.BulkInsert(context.Background(), nil))
}
