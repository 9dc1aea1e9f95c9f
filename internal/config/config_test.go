package config

import (
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HISTORY_BACKEND", "HEADER_SCAN_LINES", "SNIPPET_CHARS", "JSON_REQUIRED_FIELDS", "SUBMIT_QUEUE_ENABLED", "NATS_SUBJECT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.HistoryBackend != BackendMemory {
		t.Fatalf("expected default backend memory, got %q", cfg.HistoryBackend)
	}
	if cfg.HeaderScanLines != 20 {
		t.Fatalf("expected default header scan lines 20, got %d", cfg.HeaderScanLines)
	}
	if cfg.SnippetChars != 200 {
		t.Fatalf("expected default snippet chars 200, got %d", cfg.SnippetChars)
	}
	if cfg.JSONRequiredFields != nil {
		t.Fatalf("expected no required fields, got %v", cfg.JSONRequiredFields)
	}
	if cfg.SubmissionQueueEnabled {
		t.Fatalf("expected queue disabled by default")
	}
	if cfg.NATSSubject != "documents.submit" {
		t.Fatalf("expected default subject documents.submit, got %q", cfg.NATSSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("HISTORY_BACKEND", "SQLite")
	t.Setenv("HEADER_SCAN_LINES", "40")
	t.Setenv("JSON_REQUIRED_FIELDS", " id, customer ,,")
	t.Setenv("SUBMIT_QUEUE_ENABLED", "true")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg := Load()
	if cfg.HistoryBackend != BackendSQLite {
		t.Fatalf("expected backend sqlite, got %q", cfg.HistoryBackend)
	}
	if cfg.HeaderScanLines != 40 {
		t.Fatalf("expected header scan lines 40, got %d", cfg.HeaderScanLines)
	}
	if !reflect.DeepEqual(cfg.JSONRequiredFields, []string{"id", "customer"}) {
		t.Fatalf("unexpected required fields %v", cfg.JSONRequiredFields)
	}
	if !cfg.SubmissionQueueEnabled {
		t.Fatalf("expected queue enabled")
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Fatalf("expected max upload 1024, got %d", cfg.MaxUploadBytes)
	}
}

func TestLoadFallsBackOnMalformedNumbers(t *testing.T) {
	t.Setenv("SNIPPET_CHARS", "lots")
	t.Setenv("SUBMIT_QUEUE_ENABLED", "maybe")

	cfg := Load()
	if cfg.SnippetChars != 200 {
		t.Fatalf("expected fallback snippet chars, got %d", cfg.SnippetChars)
	}
	if cfg.SubmissionQueueEnabled {
		t.Fatalf("expected fallback false for malformed bool")
	}
}
