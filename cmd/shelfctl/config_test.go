package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "shelfctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func Test_LoadConfig_Defaults_WhenFileMissing(t *testing.T) {
	// act
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))

	// assert
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, config.Storage.Backend)
	assert.Equal(t, 14, config.Lending.LoanPeriodDays)
	assert.Equal(t, 10, config.Lending.PageSize)
	assert.False(t, config.Redis.SessionsEnabled())
}

func Test_LoadConfig_ParsesYAML_AndExpandsEnv(t *testing.T) {
	// arrange
	t.Setenv("SHELF_PG_DSN", "postgres://shelf:secret@db:5432/shelf")
	path := writeConfigFile(t, `
storage:
  backend: postgres
postgres:
  dsn: ${SHELF_PG_DSN}
  driver: sqlx
lending:
  loan_period_days: 7
`)

	// act
	config, err := LoadConfig(path)

	// assert
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, config.Storage.Backend)
	assert.Equal(t, "postgres://shelf:secret@db:5432/shelf", config.Postgres.DSN)
	assert.Equal(t, DriverSQLX, config.Postgres.Driver)
	assert.Equal(t, 7*24*time.Hour, config.Lending.LoanPeriod())
}

func Test_LoadConfig_Error_OnUnknownBackend(t *testing.T) {
	// arrange
	path := writeConfigFile(t, "storage:\n  backend: carrier-pigeon\n")

	// act
	_, err := LoadConfig(path)

	// assert
	assert.Error(t, err)
}

func Test_LoadConfig_Error_WhenPostgresDSNMissing(t *testing.T) {
	// arrange
	path := writeConfigFile(t, "storage:\n  backend: postgres\n")

	// act
	_, err := LoadConfig(path)

	// assert
	assert.Error(t, err)
}

func Test_LoadConfig_Error_WhenS3BucketMissing(t *testing.T) {
	// arrange
	path := writeConfigFile(t, "storage:\n  backend: s3\ns3:\n  endpoint: localhost:9000\n")

	// act
	_, err := LoadConfig(path)

	// assert
	assert.Error(t, err)
}

func Test_PostgresConfig_DefaultsToPGXDriver(t *testing.T) {
	// arrange
	config := &PostgresConfig{DSN: "postgres://localhost/shelf"}

	// act
	err := config.Validate()

	// assert
	require.NoError(t, err)
	assert.Equal(t, DriverPGX, config.Driver)
}
