package ports

import (
	"context"
	"io"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

// DocumentRouter is the inbound contract for synchronous classification and extraction.
type DocumentRouter interface {
	Process(ctx context.Context, doc domain.Document) (string, error)
	Route(ctx context.Context, doc domain.Document) (domain.RouteOutcome, error)
	RouteCorrelated(ctx context.Context, doc domain.Document, correlationID string) (domain.RouteOutcome, error)
}

// HistoryReader is the read model over the shared history.
type HistoryReader interface {
	FetchHistory(ctx context.Context, threadID string) ([]domain.RecordView, error)
	Search(ctx context.Context, filter domain.RecordFilter) ([]domain.MemoryRecord, error)
	GetRecord(ctx context.Context, recordID string) (*domain.MemoryRecord, error)
}

// DocumentSubmitter is the core-facing submit contract for the outer layer.
type DocumentSubmitter interface {
	Submit(ctx context.Context, content []byte, declaredName string) (string, error)
}

// SubmissionIngestor accepts uploads for asynchronous processing.
type SubmissionIngestor interface {
	Enqueue(ctx context.Context, filename string, body io.Reader) (*domain.Submission, error)
}

// SubmissionProcessor routes a queued submission.
type SubmissionProcessor interface {
	ProcessSubmission(ctx context.Context, submission domain.Submission) (domain.RouteOutcome, error)
}
