package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

type recordStoreFake struct {
	mu        sync.Mutex
	records   []domain.MemoryRecord
	appendErr error
	failOn    domain.StepType
}

func (f *recordStoreFake) Append(_ context.Context, record domain.MemoryRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil && (f.failOn == "" || f.failOn == record.StepType) {
		return "", f.appendErr
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
	out := make([]domain.MemoryRecord, 0)
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
	return append([]domain.MemoryRecord{}, f.records...), nil
}

func (f *recordStoreFake) Get(_ context.Context, recordID string) (*domain.MemoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == recordID {
			rec := r
			return &rec, nil
		}
	}
	return nil, domain.WrapError(domain.ErrRecordNotFound, "get record", fmt.Errorf("id=%s", recordID))
}

func (f *recordStoreFake) Search(_ context.Context, filter domain.RecordFilter) ([]domain.MemoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.MemoryRecord, 0)
	for _, r := range f.records {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

type storageFake struct {
	mu    sync.Mutex
	files map[string]string
	err   error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.files == nil {
		f.files = make(map[string]string)
	}
	f.files[key] = string(raw)
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.files[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(raw)), nil
}

type queueFake struct {
	published []domain.Submission
	err       error
}

func (f *queueFake) PublishSubmission(_ context.Context, sub domain.Submission) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, sub)
	return nil
}

func (f *queueFake) SubscribeSubmissions(context.Context, func(context.Context, domain.Submission) error) error {
	return errors.New("not implemented")
}
