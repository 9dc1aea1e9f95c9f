package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

var recordColumns = []string{"id", "thread_id", "correlation_id", "source_agent", "step_type", "recorded_at", "payload"}

func TestRecordRepositoryAppendClampsInSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRecordRepository(db)
	mock.ExpectQuery("INSERT INTO memory_records").
		WithArgs(sqlmock.AnyArg(), "thread-1", "corr-1", domain.SourceClassifier, "CLASSIFY", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"recorded_at"}).AddRow(time.Now()))

	id, err := repo.Append(context.Background(), domain.MemoryRecord{
		ThreadID:      "thread-1",
		CorrelationID: "corr-1",
		SourceAgent:   domain.SourceClassifier,
		StepType:      domain.StepClassify,
		Payload:       domain.Payload{Classification: &domain.Classification{Format: domain.FormatJSON}},
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordRepositoryAppendRejectsInvalidRecordWithoutQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRecordRepository(db)
	_, err = repo.Append(context.Background(), domain.MemoryRecord{SourceAgent: domain.SourceRouter, StepType: domain.StepError})
	if !domain.IsKind(err, domain.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordRepositoryAppendDuplicateID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRecordRepository(db)
	mock.ExpectQuery("INSERT INTO memory_records").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	_, err = repo.Append(context.Background(), domain.MemoryRecord{
		ID:          "dup",
		ThreadID:    "thread-1",
		SourceAgent: domain.SourceRouter,
		StepType:    domain.StepError,
	})
	if !domain.IsKind(err, domain.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestRecordRepositoryGetThread(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRecordRepository(db)
	ts := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(recordColumns).
		AddRow("r-1", "thread-1", "", domain.SourceClassifier, "CLASSIFY", ts, []byte(`{"classification":{"format":"EMAIL","intent":"URGENT","confidence":0.85}}`)).
		AddRow("r-2", "thread-1", "", domain.SourceEmailAgent, "EXTRACT", ts, []byte(`{"email":{"sender":"a@b.com","recipients":[],"subject":"","date":"","urgent":true,"urgency":"High","body":"","snippet":""}}`))

	mock.ExpectQuery("WHERE thread_id = \\$1 ORDER BY seq").
		WithArgs("thread-1").
		WillReturnRows(rows)

	records, err := repo.GetThread(context.Background(), "thread-1")
	if err != nil {
		t.Fatalf("GetThread() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].StepType != domain.StepClassify || records[0].Payload.Classification == nil {
		t.Fatalf("unexpected first record %+v", records[0])
	}
	if records[1].Payload.Email == nil || records[1].Payload.Email.Urgency != domain.UrgencyHigh {
		t.Fatalf("unexpected second record %+v", records[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordRepositoryGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRecordRepository(db)
	mock.ExpectQuery("WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	_, err = repo.Get(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordRepositorySearchBuildsPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRecordRepository(db)
	mock.ExpectQuery("WHERE source_agent = \\$1 AND step_type = \\$2 AND correlation_id = \\$3 ORDER BY seq").
		WithArgs(domain.SourceRouter, "ERROR", "corr-7").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	records, err := repo.Search(context.Background(), domain.RecordFilter{
		SourceAgent:   domain.SourceRouter,
		StepType:      domain.StepError,
		CorrelationID: "corr-7",
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
