package postgresgateway

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/homeshelf/lending-ledger-go/ledger"
	"github.com/homeshelf/lending-ledger-go/ledger/postgresgateway/internal/adapters"
)

const (
	defaultTableName   = "ledger_snapshots"
	defaultSnapshotKey = "primary"

	logMsgBuildQueryFailed    = "failed to build snapshot query"
	logMsgDBQueryFailed       = "snapshot query execution failed"
	logMsgDBExecFailed        = "snapshot write execution failed"
	logMsgCloseRowsFailed     = "failed to close database rows"
	logMsgScanRowFailed       = "failed to scan snapshot row"
	logMsgRowsAffectedFailed  = "failed to get rows affected count"
	logMsgSnapshotLoaded      = "snapshot loaded"
	logMsgSnapshotSaved       = "snapshot saved"
	logMsgVersionConflict     = "snapshot version conflict detected"
	logMsgSQLExecuted         = "executed sql for: "
	logAttrError              = "error"
	logAttrQuery              = "query"
	logAttrSnapshotKey        = "snapshot_key"
	logAttrVersion            = "version"
	logAttrExpectedVersion    = "expected_version"
	logAttrDurationMS         = "duration_ms"
	logActionLoad             = "load"
	logActionSave             = "save"
	metricLoadDuration        = "ledger_snapshot_load_duration_seconds"
	metricSaveDuration        = "ledger_snapshot_save_duration_seconds"
	metricVersionConflicts    = "ledger_snapshot_version_conflicts_total"
	metricLabelSnapshotKey    = "snapshot_key"
	colSnapshotKey            = "snapshot_key"
	colPayload                = "payload"
	colVersion                = "version"
	colUpdatedAt              = "updated_at"
	dialectPostgres           = "postgres"
	castJsonb                 = "?::jsonb"
)

var (
	// ErrNilDatabaseConnection is returned when a factory receives a nil handle.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableName is returned by WithTableName for an empty name.
	ErrEmptyTableName = errors.New("table name must not be empty")

	// ErrEmptySnapshotKey is returned by WithSnapshotKey for an empty key.
	ErrEmptySnapshotKey = errors.New("snapshot key must not be empty")

	// ErrBuildingQueryFailed wraps goqu SQL generation failures.
	ErrBuildingQueryFailed = errors.New("building sql query failed")

	// ErrLoadingSnapshotFailed wraps database failures during Load.
	ErrLoadingSnapshotFailed = errors.New("loading snapshot failed")

	// ErrSavingSnapshotFailed wraps database failures during Save.
	ErrSavingSnapshotFailed = errors.New("saving snapshot failed")

	// ErrScanningDBRowFailed wraps row scan failures during Load.
	ErrScanningDBRowFailed = errors.New("scanning database row failed")

	// ErrGettingRowsAffectedFailed wraps driver failures reading the affected-row count.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")
)

// Gateway is the Postgres implementation of ledger.Gateway. One row per
// snapshot key holds the full serialized dataset and its version counter.
type Gateway struct {
	db          adapters.DBAdapter
	tableName   string
	snapshotKey string
	clock       func() time.Time
	logger      ledger.Logger
	metrics     ledger.MetricsCollector
}

// NewGatewayFromPGXPool creates a Gateway on a pgx connection pool.
func NewGatewayFromPGXPool(pool *pgxpool.Pool, options ...Option) (Gateway, error) {
	if pool == nil {
		return Gateway{}, ErrNilDatabaseConnection
	}

	return buildGateway(adapters.NewPGXAdapter(pool), options)
}

// NewGatewayFromPGXPoolWithReplica creates a Gateway that reads from the
// replica pool and writes to the primary pool.
func NewGatewayFromPGXPoolWithReplica(pool *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (Gateway, error) {
	if pool == nil || replica == nil {
		return Gateway{}, ErrNilDatabaseConnection
	}

	return buildGateway(adapters.NewPGXAdapterWithReplica(pool, replica), options)
}

// NewGatewayFromSQLDB creates a Gateway on a database/sql handle.
func NewGatewayFromSQLDB(db *sql.DB, options ...Option) (Gateway, error) {
	if db == nil {
		return Gateway{}, ErrNilDatabaseConnection
	}

	return buildGateway(adapters.NewSQLAdapter(db), options)
}

// NewGatewayFromSQLX creates a Gateway on a sqlx handle.
func NewGatewayFromSQLX(db *sqlx.DB, options ...Option) (Gateway, error) {
	if db == nil {
		return Gateway{}, ErrNilDatabaseConnection
	}

	return buildGateway(adapters.NewSQLXAdapter(db), options)
}

func buildGateway(db adapters.DBAdapter, options []Option) (Gateway, error) {
	gateway := Gateway{
		db:          db,
		tableName:   defaultTableName,
		snapshotKey: defaultSnapshotKey,
		clock:       time.Now,
	}

	for _, option := range options {
		if err := option(&gateway); err != nil {
			return Gateway{}, err
		}
	}

	return gateway, nil
}

// Load reads the snapshot row for the configured key and decodes it. A
// missing row is reported as ledger.ErrSnapshotNotFound so callers can start
// from an empty dataset.
func (g Gateway) Load(ctx context.Context) (ledger.Snapshot, error) {
	sqlQuery, buildErr := g.buildSelectQuery()
	if buildErr != nil {
		g.logError(logMsgBuildQueryFailed, buildErr)
		return ledger.Snapshot{}, buildErr
	}

	start := time.Now()
	rows, queryErr := g.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	g.logQueryWithDuration(sqlQuery, logActionLoad, duration)

	if queryErr != nil {
		if g.logger != nil {
			g.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		}

		return ledger.Snapshot{}, errors.Join(ErrLoadingSnapshotFailed, queryErr)
	}
	defer g.closeRows(rows)

	if !rows.Next() {
		return ledger.Snapshot{}, ledger.ErrSnapshotNotFound
	}

	var payload []byte
	var version int64
	if scanErr := rows.Scan(&payload, &version); scanErr != nil {
		g.logError(logMsgScanRowFailed, scanErr)
		return ledger.Snapshot{}, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	snapshot, decodeErr := ledger.DecodeSnapshot(payload)
	if decodeErr != nil {
		return ledger.Snapshot{}, decodeErr
	}

	snapshot.Version = ledger.SnapshotVersionUint(version) //nolint:gosec //version is never negative

	g.observe(logMsgSnapshotLoaded, metricLoadDuration, duration, snapshot.Version)

	return snapshot, nil
}

// Save writes the snapshot conditioned on expectedVersion. The first save of
// a key (expectedVersion zero) inserts the row; later saves update it with a
// version predicate. Zero affected rows means another writer committed in
// between and yields ledger.ErrVersionConflict.
func (g Gateway) Save(
	ctx context.Context,
	snapshot ledger.Snapshot,
	expectedVersion ledger.SnapshotVersionUint,
) (ledger.SnapshotVersionUint, error) {

	newVersion := expectedVersion + 1
	snapshot.Version = newVersion

	payload, encodeErr := ledger.EncodeSnapshot(snapshot)
	if encodeErr != nil {
		return 0, encodeErr
	}

	var sqlQuery string
	var buildErr error

	if expectedVersion == 0 {
		sqlQuery, buildErr = g.buildInsertQuery(payload, newVersion)
	} else {
		sqlQuery, buildErr = g.buildUpdateQuery(payload, expectedVersion, newVersion)
	}

	if buildErr != nil {
		g.logError(logMsgBuildQueryFailed, buildErr)
		return 0, buildErr
	}

	start := time.Now()
	result, execErr := g.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	g.logQueryWithDuration(sqlQuery, logActionSave, duration)

	if execErr != nil {
		if g.logger != nil {
			g.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		}

		return 0, errors.Join(ErrSavingSnapshotFailed, execErr)
	}

	rowsAffected, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		g.logError(logMsgRowsAffectedFailed, rowsErr)
		return 0, errors.Join(ErrGettingRowsAffectedFailed, rowsErr)
	}

	if rowsAffected == 0 {
		if g.logger != nil {
			g.logger.Info(logMsgVersionConflict,
				logAttrSnapshotKey, g.snapshotKey,
				logAttrExpectedVersion, expectedVersion,
			)
		}
		if g.metrics != nil {
			g.metrics.IncrementCounter(metricVersionConflicts, map[string]string{metricLabelSnapshotKey: g.snapshotKey})
		}

		return 0, ledger.ErrVersionConflict
	}

	g.observe(logMsgSnapshotSaved, metricSaveDuration, duration, newVersion)

	return newVersion, nil
}

func (g Gateway) buildSelectQuery() (string, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(g.tableName).
		Select(colPayload, colVersion).
		Where(goqu.C(colSnapshotKey).Eq(g.snapshotKey))

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (g Gateway) buildInsertQuery(payload []byte, newVersion ledger.SnapshotVersionUint) (string, error) {
	// ON CONFLICT DO NOTHING turns a lost first-writer race into zero
	// affected rows, the same signal as the conditional update.
	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(g.tableName).
		Rows(goqu.Record{
			colSnapshotKey: g.snapshotKey,
			colPayload:     goqu.L(castJsonb, string(payload)),
			colVersion:     int64(newVersion), //nolint:gosec //version fits in int64
			colUpdatedAt:   g.clock().UTC(),
		}).
		OnConflict(goqu.DoNothing())

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (g Gateway) buildUpdateQuery(
	payload []byte,
	expectedVersion ledger.SnapshotVersionUint,
	newVersion ledger.SnapshotVersionUint,
) (string, error) {

	updateStmt := goqu.Dialect(dialectPostgres).
		Update(g.tableName).
		Set(goqu.Record{
			colPayload:   goqu.L(castJsonb, string(payload)),
			colVersion:   int64(newVersion), //nolint:gosec //version fits in int64
			colUpdatedAt: g.clock().UTC(),
		}).
		Where(
			goqu.C(colSnapshotKey).Eq(g.snapshotKey),
			goqu.C(colVersion).Eq(int64(expectedVersion)), //nolint:gosec //version fits in int64
		)

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (g Gateway) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if g.logger != nil {
			g.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

func (g Gateway) logError(msg string, err error) {
	if g.logger != nil {
		g.logger.Error(msg, logAttrError, err.Error())
	}
}

func (g Gateway) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if g.logger != nil {
		g.logger.Debug(logMsgSQLExecuted+action,
			logAttrQuery, sqlQuery,
			logAttrDurationMS, duration.Milliseconds(),
		)
	}
}

func (g Gateway) observe(
	msg string,
	metric string,
	duration time.Duration,
	version ledger.SnapshotVersionUint,
) {

	if g.logger != nil {
		g.logger.Info(msg,
			logAttrSnapshotKey, g.snapshotKey,
			logAttrVersion, version,
			logAttrDurationMS, duration.Milliseconds(),
		)
	}

	if g.metrics != nil {
		g.metrics.RecordDuration(metric, duration, map[string]string{metricLabelSnapshotKey: g.snapshotKey})
	}
}
