package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/samakshmehra/document-processing-system/internal/config"
	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

func TestNewMemoryBackendRoutesDocuments(t *testing.T) {
	app, err := New(context.Background(), config.Config{HistoryBackend: config.BackendMemory}, Options{})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	outcome, err := app.Router.Route(context.Background(), domain.NewDocument("order.json", []byte(`{"id": 7}`)))
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if outcome.Format != domain.FormatJSON || outcome.Final != domain.StepExtract {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	views, err := app.History.FetchHistory(context.Background(), outcome.ThreadID)
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected classify and extract records, got %d", len(views))
	}
	if app.Submitter != nil || app.Queue != nil {
		t.Fatalf("expected queue wiring to be skipped")
	}
}

func TestNewSQLiteBackend(t *testing.T) {
	cfg := config.Config{
		HistoryBackend: config.BackendSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "history.db"),
	}
	app, err := New(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	threadID, err := app.Router.Process(context.Background(), domain.NewDocument("", []byte("plain text")))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	records, err := app.Store.GetThread(context.Background(), threadID)
	if err != nil {
		t.Fatalf("get thread: %v", err)
	}
	if len(records) != 2 || records[1].StepType != domain.StepError {
		t.Fatalf("expected classify then error, got %+v", records)
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), config.Config{HistoryBackend: "cassandra"}, Options{}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRulesFromEnvironment(t *testing.T) {
	rules, err := loadRules(config.Config{HeaderScanLines: 5, JSONRequiredFields: []string{"id"}})
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if rules.HeaderScanLines != 5 || rules.SnippetChars != 200 {
		t.Fatalf("unexpected rules: %+v", rules)
	}
	if len(rules.RequiredJSONFields) != 1 || rules.RequiredJSONFields[0] != "id" {
		t.Fatalf("unexpected required fields: %v", rules.RequiredJSONFields)
	}
}

func TestLoadRulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("header_scan_lines: 7\nurgent_keywords: [fire]\n"), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rules, err := loadRules(config.Config{ClassifierRulesFile: path, HeaderScanLines: 99})
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if rules.HeaderScanLines != 7 {
		t.Fatalf("expected file to win, got %d", rules.HeaderScanLines)
	}
	if len(rules.UrgentKeywords) != 1 || rules.UrgentKeywords[0] != "fire" {
		t.Fatalf("unexpected urgent keywords: %v", rules.UrgentKeywords)
	}
}
