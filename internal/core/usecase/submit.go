package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
	"github.com/samakshmehra/document-processing-system/internal/core/ports"
)

// SubmitDocumentUseCase stores an upload and queues it for the worker.
type SubmitDocumentUseCase struct {
	storage ports.ObjectStorage
	queue   ports.SubmissionQueue
}

func NewSubmitDocumentUseCase(storage ports.ObjectStorage, queue ports.SubmissionQueue) *SubmitDocumentUseCase {
	return &SubmitDocumentUseCase{
		storage: storage,
		queue:   queue,
	}
}

func (uc *SubmitDocumentUseCase) Enqueue(ctx context.Context, filename string, body io.Reader) (*domain.Submission, error) {
	if uc.queue == nil || uc.storage == nil {
		return nil, domain.ErrQueueDisabled
	}

	id := uuid.NewString()
	sub := &domain.Submission{
		ID:         id,
		Filename:   strings.TrimSpace(filename),
		StorageKey: fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)),
		CreatedAt:  time.Now().UTC(),
	}

	if err := uc.storage.Save(ctx, sub.StorageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	if err := uc.queue.PublishSubmission(ctx, *sub); err != nil {
		return nil, fmt.Errorf("publish submission event: %w", err)
	}

	return sub, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
