package ports

import (
	"context"
	"io"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

// RecordStore is the append-only shared history of processing steps.
type RecordStore interface {
	Append(ctx context.Context, record domain.MemoryRecord) (string, error)
	GetThread(ctx context.Context, threadID string) ([]domain.MemoryRecord, error)
	GetAll(ctx context.Context) ([]domain.MemoryRecord, error)
	Get(ctx context.Context, recordID string) (*domain.MemoryRecord, error)
	Search(ctx context.Context, filter domain.RecordFilter) ([]domain.MemoryRecord, error)
}

// ObjectStorage stores raw uploads for asynchronous processing.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// SubmissionQueue publishes/consumes submission events.
type SubmissionQueue interface {
	PublishSubmission(ctx context.Context, submission domain.Submission) error
	SubscribeSubmissions(ctx context.Context, handler func(context.Context, domain.Submission) error) error
}

// DocumentLoader turns a stored submission back into a document.
type DocumentLoader interface {
	Load(ctx context.Context, submission domain.Submission) (domain.Document, error)
}

// DocumentClassifier decides format and intent and opens a new thread.
type DocumentClassifier interface {
	Classify(ctx context.Context, doc domain.Document, correlationID string) (domain.Classification, string, error)
}

// EmailExtractor handles documents classified as EMAIL.
type EmailExtractor interface {
	Extract(ctx context.Context, doc domain.Document, threadID, correlationID string, cls domain.Classification) (domain.EmailExtraction, error)
}

// JSONExtractor handles documents classified as JSON.
type JSONExtractor interface {
	Extract(ctx context.Context, doc domain.Document, threadID, correlationID string) (domain.JSONExtraction, error)
}
