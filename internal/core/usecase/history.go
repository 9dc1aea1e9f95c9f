package usecase

import (
	"context"
	"fmt"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
	"github.com/samakshmehra/document-processing-system/internal/core/ports"
)

// HistoryService is the facade the outer layers talk to: submit a document,
// read back its history.
type HistoryService struct {
	store  ports.RecordStore
	router ports.DocumentRouter
}

var (
	_ ports.DocumentSubmitter = (*HistoryService)(nil)
	_ ports.HistoryReader     = (*HistoryService)(nil)
)

func NewHistoryService(store ports.RecordStore, router ports.DocumentRouter) *HistoryService {
	return &HistoryService{
		store:  store,
		router: router,
	}
}

func (s *HistoryService) Submit(ctx context.Context, content []byte, declaredName string) (string, error) {
	return s.router.Process(ctx, domain.NewDocument(declaredName, content))
}

// FetchHistory returns the views of one thread, or of the whole history when
// threadID is empty. An unknown thread yields an empty slice.
func (s *HistoryService) FetchHistory(ctx context.Context, threadID string) ([]domain.RecordView, error) {
	var (
		records []domain.MemoryRecord
		err     error
	)
	if threadID == "" {
		records, err = s.store.GetAll(ctx)
	} else {
		records, err = s.store.GetThread(ctx, threadID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return toViews(records), nil
}

func (s *HistoryService) Search(ctx context.Context, filter domain.RecordFilter) ([]domain.MemoryRecord, error) {
	records, err := s.store.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	return records, nil
}

func (s *HistoryService) GetRecord(ctx context.Context, recordID string) (*domain.MemoryRecord, error) {
	return s.store.Get(ctx, recordID)
}

func toViews(records []domain.MemoryRecord) []domain.RecordView {
	views := make([]domain.RecordView, 0, len(records))
	for _, r := range records {
		views = append(views, domain.NewRecordView(r))
	}
	return views
}
