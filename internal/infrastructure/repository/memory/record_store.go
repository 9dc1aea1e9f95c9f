package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

// RecordStore keeps the history in process memory. Contents live as long as
// the process does.
type RecordStore struct {
	mu       sync.RWMutex
	records  []domain.MemoryRecord
	byID     map[string]int
	byThread map[string][]int
	now      func() time.Time
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		byID:     make(map[string]int),
		byThread: make(map[string][]int),
		now:      time.Now,
	}
}

func (s *RecordStore) Append(_ context.Context, record domain.MemoryRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var notBefore time.Time
	if idx := s.byThread[record.ThreadID]; len(idx) > 0 {
		notBefore = s.records[idx[len(idx)-1]].Timestamp
	}
	if err := record.Prepare(s.now(), notBefore); err != nil {
		return "", err
	}
	if _, exists := s.byID[record.ID]; exists {
		return "", domain.WrapError(domain.ErrInvalidRecord, "append record", fmt.Errorf("duplicate record_id %s", record.ID))
	}

	pos := len(s.records)
	s.records = append(s.records, record)
	s.byID[record.ID] = pos
	s.byThread[record.ThreadID] = append(s.byThread[record.ThreadID], pos)
	return record.ID, nil
}

func (s *RecordStore) GetThread(_ context.Context, threadID string) ([]domain.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.byThread[threadID]
	out := make([]domain.MemoryRecord, 0, len(idx))
	for _, pos := range idx {
		out = append(out, s.records[pos])
	}
	return out, nil
}

func (s *RecordStore) GetAll(_ context.Context) ([]domain.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MemoryRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *RecordStore) Get(_ context.Context, recordID string) (*domain.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.byID[recordID]
	if !ok {
		return nil, domain.WrapError(domain.ErrRecordNotFound, "get record", fmt.Errorf("id=%s", recordID))
	}
	record := s.records[pos]
	return &record, nil
}

func (s *RecordStore) Search(ctx context.Context, filter domain.RecordFilter) ([]domain.MemoryRecord, error) {
	if filter.ThreadID != "" {
		thread, err := s.GetThread(ctx, filter.ThreadID)
		if err != nil {
			return nil, err
		}
		return filterRecords(thread, filter), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterRecords(s.records, filter), nil
}

func filterRecords(records []domain.MemoryRecord, filter domain.RecordFilter) []domain.MemoryRecord {
	out := make([]domain.MemoryRecord, 0)
	for _, r := range records {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
