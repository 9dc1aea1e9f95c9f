package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

const uniqueViolation = "23505"

type RecordRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101701)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS memory_records (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	thread_id TEXT NOT NULL,
	correlation_id TEXT NOT NULL DEFAULT '',
	source_agent TEXT NOT NULL,
	step_type TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	payload JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memory_records_thread ON memory_records(thread_id, seq);
CREATE INDEX IF NOT EXISTS idx_memory_records_correlation ON memory_records(correlation_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RecordRepository) Append(ctx context.Context, record domain.MemoryRecord) (string, error) {
	if err := record.Prepare(time.Now(), time.Time{}); err != nil {
		return "", err
	}
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// The timestamp is clamped to the latest record of the thread so a thread
	// never goes back in time, even across api/worker processes.
	row := r.db.QueryRowContext(ctx, `
INSERT INTO memory_records (id, thread_id, correlation_id, source_agent, step_type, recorded_at, payload)
SELECT $1, $2, $3, $4, $5,
	GREATEST($6::timestamptz, COALESCE((SELECT MAX(recorded_at) FROM memory_records WHERE thread_id = $2), $6::timestamptz)),
	$7
RETURNING recorded_at
`,
		record.ID, record.ThreadID, record.CorrelationID, record.SourceAgent, string(record.StepType), record.Timestamp, payload,
	)

	var recordedAt time.Time
	if err := row.Scan(&recordedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", domain.WrapError(domain.ErrInvalidRecord, "append record", fmt.Errorf("duplicate record_id %s", record.ID))
		}
		return "", fmt.Errorf("insert record: %w", err)
	}
	return record.ID, nil
}

const selectColumns = `SELECT id, thread_id, correlation_id, source_agent, step_type, recorded_at, payload FROM memory_records`

func (r *RecordRepository) GetThread(ctx context.Context, threadID string) ([]domain.MemoryRecord, error) {
	return r.query(ctx, selectColumns+` WHERE thread_id = $1 ORDER BY seq`, threadID)
}

func (r *RecordRepository) GetAll(ctx context.Context) ([]domain.MemoryRecord, error) {
	return r.query(ctx, selectColumns+` ORDER BY seq`)
}

func (r *RecordRepository) Get(ctx context.Context, recordID string) (*domain.MemoryRecord, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, recordID)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRecordNotFound, "get record", fmt.Errorf("id=%s", recordID))
		}
		return nil, err
	}
	return &record, nil
}

func (r *RecordRepository) Search(ctx context.Context, filter domain.RecordFilter) ([]domain.MemoryRecord, error) {
	var conditions []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s $%d", column, len(args)))
	}

	if filter.SourceAgent != "" {
		add("source_agent =", filter.SourceAgent)
	}
	if filter.StepType != "" {
		add("step_type =", string(filter.StepType))
	}
	if filter.ThreadID != "" {
		add("thread_id =", filter.ThreadID)
	}
	if filter.CorrelationID != "" {
		add("correlation_id =", filter.CorrelationID)
	}
	if !filter.Since.IsZero() {
		add("recorded_at >=", filter.Since)
	}
	if !filter.Until.IsZero() {
		add("recorded_at <=", filter.Until)
	}

	query := selectColumns
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY seq"
	return r.query(ctx, query, args...)
}

func (r *RecordRepository) query(ctx context.Context, query string, args ...any) ([]domain.MemoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := make([]domain.MemoryRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.MemoryRecord, error) {
	var record domain.MemoryRecord
	var stepType string
	var payloadRaw []byte

	err := row.Scan(
		&record.ID, &record.ThreadID, &record.CorrelationID, &record.SourceAgent,
		&stepType, &record.Timestamp, &payloadRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record, err
		}
		return record, fmt.Errorf("scan record: %w", err)
	}
	if err := json.Unmarshal(payloadRaw, &record.Payload); err != nil {
		return record, fmt.Errorf("unmarshal payload: %w", err)
	}
	record.StepType = domain.StepType(stepType)
	record.Timestamp = record.Timestamp.UTC()
	return record, nil
}
