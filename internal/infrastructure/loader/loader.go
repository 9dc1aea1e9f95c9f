package loader

import (
	"context"
	"fmt"
	"io"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
	"github.com/samakshmehra/document-processing-system/internal/core/ports"
)

const defaultMaxBytes = 10 << 20

// Loader reads a queued submission back from object storage.
type Loader struct {
	storage  ports.ObjectStorage
	maxBytes int64
}

func New(storage ports.ObjectStorage, maxBytes int64) *Loader {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Loader{storage: storage, maxBytes: maxBytes}
}

func (l *Loader) Load(ctx context.Context, submission domain.Submission) (domain.Document, error) {
	reader, err := l.storage.Open(ctx, submission.StorageKey)
	if err != nil {
		return domain.Document{}, fmt.Errorf("open stored submission: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, l.maxBytes+1))
	if err != nil {
		return domain.Document{}, fmt.Errorf("read stored submission: %w", err)
	}
	if int64(len(raw)) > l.maxBytes {
		return domain.Document{}, domain.WrapError(
			domain.ErrInvalidInput,
			"load submission",
			fmt.Errorf("submission %s exceeds %d bytes", submission.ID, l.maxBytes),
		)
	}

	doc := domain.NewDocument(submission.Filename, raw)
	if !submission.CreatedAt.IsZero() {
		doc.ReceivedAt = submission.CreatedAt
	}
	return doc, nil
}
