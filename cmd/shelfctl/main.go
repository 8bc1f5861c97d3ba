// shelfctl is the command line client of the lending ledger. It manages the
// book catalog, loans and the transaction history against a memory, Postgres
// or S3 backed snapshot store.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // postgres driver for database/sql and sqlx
	"github.com/rs/zerolog"

	"github.com/homeshelf/lending-ledger-go/ledger"
	"github.com/homeshelf/lending-ledger-go/ledger/coordinator"
	"github.com/homeshelf/lending-ledger-go/ledger/memorygateway"
	"github.com/homeshelf/lending-ledger-go/ledger/postgresgateway"
	"github.com/homeshelf/lending-ledger-go/ledger/redissession"
	"github.com/homeshelf/lending-ledger-go/ledger/s3gateway"
)

const defaultConfigFile = "shelfctl.yaml"

func main() {
	// A .env file is optional; explicit environment always wins.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	configFile := os.Getenv("SHELFCTL_CONFIG")
	if configFile == "" {
		configFile = defaultConfigFile
	}

	config, err := LoadConfig(configFile)
	if err != nil {
		logger.Error().Err(err).Msg("loading configuration failed")
		os.Exit(1)
	}

	c, err := buildCoordinator(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("initializing ledger failed")
		os.Exit(1)
	}

	rootCmd := newRootCommand(c, config)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildCoordinator(config *Config, logger zerolog.Logger) (*coordinator.Coordinator, error) {
	gateway, err := buildGateway(config, logger)
	if err != nil {
		return nil, err
	}

	options := []coordinator.Option{
		coordinator.WithLoanPeriod(config.Lending.LoanPeriod()),
		coordinator.WithPageSize(config.Lending.PageSize),
		coordinator.WithLogger(newZerologAdapter(logger)),
	}

	if config.Redis.SessionsEnabled() {
		sessionStore, storeErr := redissession.NewStoreFromAddr(config.Redis.Addr, config.Redis.Password)
		if storeErr != nil {
			return nil, fmt.Errorf("initializing session store: %w", storeErr)
		}

		options = append(options, coordinator.WithSessionStore(sessionStore))
	}

	return coordinator.NewCoordinator(gateway, options...)
}

func buildGateway(config *Config, logger zerolog.Logger) (ledger.Gateway, error) {
	switch config.Storage.Backend {
	case BackendPostgres:
		return buildPostgresGateway(config, logger)

	case BackendS3:
		return s3gateway.NewGateway(
			config.S3.Endpoint,
			config.S3.AccessKey,
			config.S3.SecretKey,
			config.S3.Bucket,
			config.S3.UseSSL,
			s3Options(config, logger)...,
		)

	default:
		return memorygateway.NewGateway(), nil
	}
}

func buildPostgresGateway(config *Config, logger zerolog.Logger) (ledger.Gateway, error) {
	options := make([]postgresgateway.Option, 0, 2)
	options = append(options, postgresgateway.WithLogger(newZerologAdapter(logger)))
	if config.Postgres.Table != "" {
		options = append(options, postgresgateway.WithTableName(config.Postgres.Table))
	}

	switch config.Postgres.Driver {
	case DriverSQL:
		db, err := sql.Open("postgres", config.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres connection: %w", err)
		}

		return postgresgateway.NewGatewayFromSQLDB(db, options...)

	case DriverSQLX:
		db, err := sqlx.Open("postgres", config.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres connection: %w", err)
		}

		return postgresgateway.NewGatewayFromSQLX(db, options...)

	default:
		pool, err := pgxpool.New(context.Background(), config.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("creating pgx pool: %w", err)
		}

		return postgresgateway.NewGatewayFromPGXPool(pool, options...)
	}
}

func s3Options(config *Config, logger zerolog.Logger) []s3gateway.Option {
	options := []s3gateway.Option{s3gateway.WithLogger(newZerologAdapter(logger))}
	if config.S3.ObjectKey != "" {
		options = append(options, s3gateway.WithObjectKey(config.S3.ObjectKey))
	}

	return options
}
