// Package sqlite stores the shared history in SQLite. The default path
// ":memory:" keeps it process-local.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

type RecordStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewRecordStore opens the database at dbPath and verifies connectivity.
// A single connection is used so that ":memory:" databases are shared by
// every caller.
func NewRecordStore(ctx context.Context, dbPath string) (*RecordStore, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &RecordStore{db: db}, nil
}

func (s *RecordStore) InitSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS memory_records (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	thread_id TEXT NOT NULL,
	correlation_id TEXT NOT NULL DEFAULT '',
	source_agent TEXT NOT NULL,
	step_type TEXT NOT NULL,
	recorded_at INTEGER NOT NULL,
	payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memory_records_thread ON memory_records(thread_id, seq);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

func (s *RecordStore) Close() error {
	return s.db.Close()
}

func (s *RecordStore) Append(ctx context.Context, record domain.MemoryRecord) (string, error) {
	if err := record.Prepare(time.Now(), time.Time{}); err != nil {
		return "", err
	}
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := record.Timestamp.UnixNano()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO memory_records (id, thread_id, correlation_id, source_agent, step_type, recorded_at, payload)
SELECT ?, ?, ?, ?, ?,
	MAX(?, COALESCE((SELECT MAX(recorded_at) FROM memory_records WHERE thread_id = ?), ?)),
	?
`,
		record.ID, record.ThreadID, record.CorrelationID, record.SourceAgent, string(record.StepType),
		ts, record.ThreadID, ts, string(payload),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", domain.WrapError(domain.ErrInvalidRecord, "append record", fmt.Errorf("duplicate record_id %s", record.ID))
		}
		return "", fmt.Errorf("insert record: %w", err)
	}
	return record.ID, nil
}

const selectColumns = `SELECT id, thread_id, correlation_id, source_agent, step_type, recorded_at, payload FROM memory_records`

func (s *RecordStore) GetThread(ctx context.Context, threadID string) ([]domain.MemoryRecord, error) {
	return s.query(ctx, selectColumns+` WHERE thread_id = ? ORDER BY seq`, threadID)
}

func (s *RecordStore) GetAll(ctx context.Context) ([]domain.MemoryRecord, error) {
	return s.query(ctx, selectColumns+` ORDER BY seq`)
}

func (s *RecordStore) Get(ctx context.Context, recordID string) (*domain.MemoryRecord, error) {
	records, err := s.query(ctx, selectColumns+` WHERE id = ?`, recordID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.WrapError(domain.ErrRecordNotFound, "get record", fmt.Errorf("id=%s", recordID))
	}
	return &records[0], nil
}

func (s *RecordStore) Search(ctx context.Context, filter domain.RecordFilter) ([]domain.MemoryRecord, error) {
	var conditions []string
	var args []any

	if filter.SourceAgent != "" {
		conditions = append(conditions, "source_agent = ?")
		args = append(args, filter.SourceAgent)
	}
	if filter.StepType != "" {
		conditions = append(conditions, "step_type = ?")
		args = append(args, string(filter.StepType))
	}
	if filter.ThreadID != "" {
		conditions = append(conditions, "thread_id = ?")
		args = append(args, filter.ThreadID)
	}
	if filter.CorrelationID != "" {
		conditions = append(conditions, "correlation_id = ?")
		args = append(args, filter.CorrelationID)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "recorded_at >= ?")
		args = append(args, filter.Since.UnixNano())
	}
	if !filter.Until.IsZero() {
		conditions = append(conditions, "recorded_at <= ?")
		args = append(args, filter.Until.UnixNano())
	}

	query := selectColumns
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	return s.query(ctx, query+" ORDER BY seq", args...)
}

func (s *RecordStore) query(ctx context.Context, query string, args ...any) ([]domain.MemoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := make([]domain.MemoryRecord, 0)
	for rows.Next() {
		var record domain.MemoryRecord
		var stepType, payload string
		var recordedAt int64
		if err := rows.Scan(&record.ID, &record.ThreadID, &record.CorrelationID, &record.SourceAgent, &stepType, &recordedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &record.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		record.StepType = domain.StepType(stepType)
		record.Timestamp = time.Unix(0, recordedAt).UTC()
		out = append(out, record)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}
