package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

func newTestStore(t *testing.T) *RecordStore {
	t.Helper()
	store, err := NewRecordStore(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.InitSchema(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cls := &domain.Classification{Format: domain.FormatEmail, Intent: domain.IntentUrgent, Confidence: 0.85}
	id, err := store.Append(ctx, domain.MemoryRecord{
		ThreadID:      "t1",
		CorrelationID: "c1",
		SourceAgent:   domain.SourceClassifier,
		StepType:      domain.StepClassify,
		Payload:       domain.Payload{Classification: cls},
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ThreadID)
	assert.Equal(t, "c1", got.CorrelationID)
	assert.Equal(t, domain.StepClassify, got.StepType)
	require.NotNil(t, got.Payload.Classification)
	assert.Equal(t, *cls, *got.Payload.Classification)

	_, err = store.Get(ctx, "missing")
	assert.True(t, domain.IsKind(err, domain.ErrRecordNotFound))
}

func TestRecordStoreClampsThreadTimestamps(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	late := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	_, err := store.Append(ctx, domain.MemoryRecord{ThreadID: "t1", SourceAgent: domain.SourceClassifier, StepType: domain.StepClassify, Timestamp: late})
	require.NoError(t, err)
	_, err = store.Append(ctx, domain.MemoryRecord{ThreadID: "t1", SourceAgent: domain.SourceJSONAgent, StepType: domain.StepExtract, Timestamp: late.Add(-time.Hour)})
	require.NoError(t, err)

	thread, err := store.GetThread(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, domain.StepClassify, thread[0].StepType)
	assert.True(t, thread[1].Timestamp.Equal(late), "expected clamped timestamp, got %v", thread[1].Timestamp)
}

func TestRecordStoreRejectsDuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	rec := domain.MemoryRecord{ID: "dup", ThreadID: "t1", SourceAgent: domain.SourceRouter, StepType: domain.StepError}

	_, err := store.Append(ctx, rec)
	require.NoError(t, err)
	_, err = store.Append(ctx, rec)
	assert.True(t, domain.IsKind(err, domain.ErrInvalidRecord), "got %v", err)
}

func TestRecordStoreSearchAndGetAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, rec := range []domain.MemoryRecord{
		{ThreadID: "t1", SourceAgent: domain.SourceClassifier, StepType: domain.StepClassify},
		{ThreadID: "t1", SourceAgent: domain.SourceRouter, StepType: domain.StepError, CorrelationID: "c9"},
		{ThreadID: "t2", SourceAgent: domain.SourceClassifier, StepType: domain.StepClassify},
	} {
		_, err := store.Append(ctx, rec)
		require.NoError(t, err)
	}

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "t2", all[2].ThreadID)

	errs, err := store.Search(ctx, domain.RecordFilter{StepType: domain.StepError})
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "c9", errs[0].CorrelationID)

	empty, err := store.GetThread(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestRecordStorePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := NewRecordStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.InitSchema(ctx))
	id, err := store.Append(ctx, domain.MemoryRecord{ThreadID: "t1", SourceAgent: domain.SourceClassifier, StepType: domain.StepClassify})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewRecordStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.InitSchema(ctx))

	got, err := reopened.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ThreadID)
}
