package config

import (
	"fmt"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"fern-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL (legacy source, read-only)
	LegacyDatabaseHost            string        `env:"LEGACY_DB_HOST" env-default:"" validate:"required"`
	LegacyDatabasePort            string        `env:"LEGACY_DB_PORT" env-default:"5432"`
	LegacyDatabaseUserName        string        `env:"LEGACY_DB_USER_NAME" env-default:""`
	LegacyDatabasePassword        string        `env:"LEGACY_DB_PASSWORD" env-default:""`
	LegacyDatabaseName            string        `env:"LEGACY_DB_NAME" env-default:"legacy"`
	LegacyDatabaseSSLMode         string        `env:"LEGACY_DB_SSL_MODE" env-default:"disable"`
	LegacyDatabaseMaxOpenConns    int           `env:"LEGACY_DB_MAX_OPEN_CONNS" env-default:"10"`
	LegacyDatabaseMaxIdleConns    int           `env:"LEGACY_DB_MAX_IDLE_CONNS" env-default:"5"`
	LegacyDatabaseConnMaxLifetime time.Duration `env:"LEGACY_DB_CONN_MAX_LIFETIME" env-default:"10s"`

	// PostgreSQL (financial destination)
	DatabaseHost                string        `env:"DB_HOST" env-default:"" validate:"required"`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"financial"`
	DatabaseSSLMode             string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion    int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce      int           `env:"DB_MIGRATION_FORCE" env-default:"0"`

	// Sync engine
	SyncBatchSize          int  `env:"SYNC_BATCH_SIZE" env-default:"1000" validate:"gt=0"`
	SyncDiagnosticsEnabled bool `env:"SYNC_DIAGNOSTICS_ENABLED" env-default:"false"`

	// Scheduler
	SchedulerEnabled bool `env:"SCHEDULER_ENABLED" env-default:"true"`
	SchedulerRunHour int  `env:"SCHEDULER_RUN_HOUR" env-default:"2" validate:"gte=0,lte=23"`

	// Kafka Producer (sync lifecycle events)
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"sync-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" env-default:"false"`
	TracingExporter   string  `env:"TRACING_EXPORTER" env-default:"otlp"`
	OTLPEndpoint      string  `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol      string  `env:"OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure      bool    `env:"OTLP_INSECURE" env-default:"true"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" env-default:"1.0"`
}

// Load reads .env when present, binds environment variables, and validates
// the result.
func Load() (*Config, error) {
	// .env is a local development convenience; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
