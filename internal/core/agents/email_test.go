package agents

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

func TestEmailParseHeadersAndBody(t *testing.T) {
	a := NewEmailAgent(&recordStoreFake{}, DefaultRules())

	got := a.Parse(urgentEmail, false)
	if got.Sender != "john@acme.com" {
		t.Fatalf("expected sender john@acme.com, got %q", got.Sender)
	}
	if got.SenderName != "John Doe" {
		t.Fatalf("expected sender name John Doe, got %q", got.SenderName)
	}
	if got.SenderCompany != "Acme" {
		t.Fatalf("expected company Acme, got %q", got.SenderCompany)
	}
	if len(got.Recipients) != 1 || got.Recipients[0] != "support@example.com" {
		t.Fatalf("unexpected recipients %v", got.Recipients)
	}
	if got.Subject != "Immediate action required" {
		t.Fatalf("unexpected subject %q", got.Subject)
	}
	if got.Date != "Mon, 12 Oct 2026 09:00:00 +0000" {
		t.Fatalf("unexpected date %q", got.Date)
	}
	if !strings.HasPrefix(got.Body, "Hi team,") || strings.Contains(got.Body, "Subject:") {
		t.Fatalf("unexpected body %q", got.Body)
	}
	if !got.Urgent || got.Urgency != domain.UrgencyHigh {
		t.Fatalf("expected urgent/High, got %v/%s", got.Urgent, got.Urgency)
	}
}

func TestEmailParseMissingHeadersAreEmpty(t *testing.T) {
	a := NewEmailAgent(&recordStoreFake{}, DefaultRules())

	got := a.Parse("From: bob@example.org\n\nhello", false)
	if got.Subject != "" || got.Date != "" {
		t.Fatalf("expected empty subject/date, got %q/%q", got.Subject, got.Date)
	}
	if got.Recipients == nil || len(got.Recipients) != 0 {
		t.Fatalf("expected empty recipients, got %v", got.Recipients)
	}
	if got.Body != "hello" {
		t.Fatalf("expected body hello, got %q", got.Body)
	}
}

func TestEmailParseUrgencyTiers(t *testing.T) {
	a := NewEmailAgent(&recordStoreFake{}, DefaultRules())

	cases := []struct {
		text string
		hint bool
		want domain.Urgency
	}{
		{text: "From: a@b.com\nSubject: Important update\n\nplease read", want: domain.UrgencyMedium},
		{text: "From: a@b.com\nSubject: Weekly notes\n\nnothing new", want: domain.UrgencyLow},
		{text: "From: a@b.com\nSubject: Weekly notes\n\nreply ASAP", want: domain.UrgencyHigh},
		{text: "From: a@b.com\nSubject: Weekly notes\n\nnothing new", hint: true, want: domain.UrgencyHigh},
	}
	for _, tc := range cases {
		if got := a.Parse(tc.text, tc.hint).Urgency; got != tc.want {
			t.Fatalf("text %q: expected %s, got %s", tc.text, tc.want, got)
		}
	}
}

func TestEmailParseSenderFallback(t *testing.T) {
	a := NewEmailAgent(&recordStoreFake{}, DefaultRules())

	got := a.Parse("From: Support Team at ops@globex.io (night shift\nSubject: x\n\nbody", false)
	if got.Sender != "ops@globex.io" {
		t.Fatalf("expected regex fallback sender, got %q", got.Sender)
	}
	if got.SenderCompany != "Globex" {
		t.Fatalf("expected company Globex, got %q", got.SenderCompany)
	}
}

func TestEmailSnippetTruncatesOnRunes(t *testing.T) {
	rules := DefaultRules()
	rules.SnippetChars = 5
	a := NewEmailAgent(&recordStoreFake{}, rules)

	got := a.Parse("From: a@b.com\nSubject: s\n\nприветствую", false)
	if got.Snippet != "приве..." {
		t.Fatalf("unexpected snippet %q", got.Snippet)
	}
	if !utf8.ValidString(got.Snippet) {
		t.Fatalf("snippet is not valid UTF-8")
	}
}

func TestEmailExtractAppendsRecord(t *testing.T) {
	store := &recordStoreFake{}
	a := NewEmailAgent(store, DefaultRules())
	cls := domain.Classification{Format: domain.FormatEmail, Intent: domain.IntentNormal}

	got, err := a.Extract(context.Background(), domain.NewDocument("", []byte(urgentEmail)), "thread-1", "corr", cls)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected one record, got %d", len(store.records))
	}
	rec := store.records[0]
	if rec.ThreadID != "thread-1" || rec.StepType != domain.StepExtract || rec.SourceAgent != domain.SourceEmailAgent {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Payload.Email == nil || rec.Payload.Email.Sender != got.Sender {
		t.Fatalf("expected email payload, got %+v", rec.Payload)
	}
}

func TestEmailExtractEmptyDocument(t *testing.T) {
	store := &recordStoreFake{}
	a := NewEmailAgent(store, DefaultRules())

	_, err := a.Extract(context.Background(), domain.NewDocument("", []byte("  \n ")), "thread-1", "", domain.Classification{})
	if !domain.IsKind(err, domain.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if len(store.records) != 0 {
		t.Fatalf("expected no records, got %d", len(store.records))
	}
}
