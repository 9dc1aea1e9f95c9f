package agents

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

type recordStoreFake struct {
	mu      sync.Mutex
	records []domain.MemoryRecord
	err     error
}

func (f *recordStoreFake) Append(_ context.Context, record domain.MemoryRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if err := record.Prepare(time.Now(), time.Time{}); err != nil {
		return "", err
	}
	f.records = append(f.records, record)
	return record.ID, nil
}

func (f *recordStoreFake) GetThread(_ context.Context, threadID string) ([]domain.MemoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.MemoryRecord
	for _, r := range f.records {
		if r.ThreadID == threadID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *recordStoreFake) GetAll(context.Context) ([]domain.MemoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.MemoryRecord(nil), f.records...), nil
}

func (f *recordStoreFake) Get(context.Context, string) (*domain.MemoryRecord, error) {
	return nil, errors.New("not implemented")
}

func (f *recordStoreFake) Search(context.Context, domain.RecordFilter) ([]domain.MemoryRecord, error) {
	return nil, errors.New("not implemented")
}
