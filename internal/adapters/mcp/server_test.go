package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

type documentRouterFake struct {
	got     domain.Document
	outcome domain.RouteOutcome
}

func (f *documentRouterFake) Process(ctx context.Context, doc domain.Document) (string, error) {
	o, err := f.Route(ctx, doc)
	return o.ThreadID, err
}

func (f *documentRouterFake) Route(ctx context.Context, doc domain.Document) (domain.RouteOutcome, error) {
	return f.RouteCorrelated(ctx, doc, "")
}

func (f *documentRouterFake) RouteCorrelated(_ context.Context, doc domain.Document, _ string) (domain.RouteOutcome, error) {
	f.got = doc
	return f.outcome, nil
}

type historyFake struct {
	views   []domain.RecordView
	records map[string]domain.MemoryRecord
	thread  string
	err     error
}

func (f *historyFake) FetchHistory(_ context.Context, threadID string) ([]domain.RecordView, error) {
	f.thread = threadID
	return f.views, f.err
}

func (f *historyFake) Search(context.Context, domain.RecordFilter) ([]domain.MemoryRecord, error) {
	return nil, nil
}

func (f *historyFake) GetRecord(_ context.Context, recordID string) (*domain.MemoryRecord, error) {
	r, ok := f.records[recordID]
	if !ok {
		return nil, domain.WrapError(domain.ErrRecordNotFound, "get record", errors.New(recordID))
	}
	return &r, nil
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("expected tool content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestSubmitDocumentTool(t *testing.T) {
	docs := &documentRouterFake{outcome: domain.RouteOutcome{ThreadID: "t1", Format: domain.FormatEmail, Intent: domain.IntentUrgent, Final: domain.StepExtract}}
	tools := NewTools(docs, &historyFake{})

	res, err := tools.SubmitDocument(context.Background(), callRequest("submit_document", map[string]any{
		"content": "From: a@b.c\nSubject: hi\n\nbody",
		"name":    "mail.eml",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var outcome domain.RouteOutcome
	if err := json.Unmarshal([]byte(resultText(t, res)), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.ThreadID != "t1" || outcome.Final != domain.StepExtract {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if docs.got.Name != "mail.eml" {
		t.Fatalf("expected declared name to be forwarded, got %q", docs.got.Name)
	}
}

func TestSubmitDocumentToolRequiresContent(t *testing.T) {
	tools := NewTools(&documentRouterFake{}, &historyFake{})

	res, err := tools.SubmitDocument(context.Background(), callRequest("submit_document", map[string]any{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected tool error for missing content")
	}
}

func TestFetchHistoryTool(t *testing.T) {
	history := &historyFake{views: []domain.RecordView{
		{RecordID: "r1", ThreadID: "t1", SourceAgent: domain.SourceClassifier, StepType: domain.StepClassify, Timestamp: time.Now().UTC()},
	}}
	tools := NewTools(&documentRouterFake{}, history)

	res, err := tools.FetchHistory(context.Background(), callRequest("fetch_history", map[string]any{"thread_id": "t1"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if history.thread != "t1" {
		t.Fatalf("expected thread filter, got %q", history.thread)
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &resp); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected 1 record, got %d", resp.Count)
	}
}

func TestGetRecordToolNotFound(t *testing.T) {
	tools := NewTools(&documentRouterFake{}, &historyFake{records: map[string]domain.MemoryRecord{}})

	res, err := tools.GetRecord(context.Background(), callRequest("get_record", map[string]any{"record_id": "nope"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected tool error")
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(NewTools(&documentRouterFake{}, &historyFake{}))
	if s == nil {
		t.Fatalf("expected server")
	}
}
