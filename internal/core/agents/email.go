package agents

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
	"github.com/samakshmehra/document-processing-system/internal/core/ports"
)

var emailAddressPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

type EmailAgent struct {
	store ports.RecordStore
	rules Rules
}

func NewEmailAgent(store ports.RecordStore, rules Rules) *EmailAgent {
	return &EmailAgent{
		store: store,
		rules: rules.Normalize(),
	}
}

// Extract parses the document and records an EXTRACT step on threadID.
// A document without any text fails with domain.ErrEmptyDocument and leaves
// the thread untouched.
func (a *EmailAgent) Extract(
	ctx context.Context,
	doc domain.Document,
	threadID, correlationID string,
	cls domain.Classification,
) (domain.EmailExtraction, error) {
	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		return domain.EmailExtraction{}, domain.WrapError(domain.ErrEmptyDocument, "extract email", errors.New("document has no text"))
	}

	extraction := a.Parse(text, cls.Intent == domain.IntentUrgent)
	_, err := a.store.Append(ctx, domain.MemoryRecord{
		ThreadID:      threadID,
		CorrelationID: correlationID,
		SourceAgent:   domain.SourceEmailAgent,
		StepType:      domain.StepExtract,
		Payload:       domain.Payload{Email: &extraction},
	})
	if err != nil {
		return extraction, fmt.Errorf("record email extraction: %w", err)
	}
	return extraction, nil
}

// Parse extracts header fields and body. Missing headers become empty strings.
func (a *EmailAgent) Parse(text string, urgentHint bool) domain.EmailExtraction {
	parts := parseEmail(text)

	out := domain.EmailExtraction{
		Subject:    parts.headers[headerSubject],
		Date:       parts.headers[headerDate],
		Recipients: parseRecipients(parts.headers[headerTo]),
		Body:       parts.body,
		Snippet:    snippet(parts.body, a.rules.SnippetChars),
	}
	out.Sender, out.SenderName = parseSender(parts.headers[headerFrom])
	out.SenderCompany = companyFromAddress(out.Sender)

	cueText := out.Subject + "\n" + out.Body
	out.Urgent = urgentHint || containsAnyKeyword(cueText, a.rules.UrgentKeywords)
	switch {
	case out.Urgent:
		out.Urgency = domain.UrgencyHigh
	case containsAnyKeyword(cueText, a.rules.ImportantKeywords):
		out.Urgency = domain.UrgencyMedium
	default:
		out.Urgency = domain.UrgencyLow
	}
	return out
}

func parseSender(raw string) (string, string) {
	if raw == "" {
		return "", ""
	}
	if addr, err := mail.ParseAddress(raw); err == nil {
		return addr.Address, addr.Name
	}
	if match := emailAddressPattern.FindString(raw); match != "" {
		return match, ""
	}
	return raw, ""
}

func parseRecipients(raw string) []string {
	out := []string{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	if list, err := mail.ParseAddressList(raw); err == nil {
		for _, addr := range list {
			out = append(out, addr.Address)
		}
		return out
	}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func companyFromAddress(address string) string {
	at := strings.LastIndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return ""
	}
	label, _, _ := strings.Cut(address[at+1:], ".")
	if label == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(label)
	return string(unicode.ToUpper(r)) + strings.ToLower(label[size:])
}

func snippet(body string, limit int) string {
	if utf8.RuneCountInString(body) <= limit {
		return body
	}
	runes := []rune(body)
	return string(runes[:limit]) + "..."
}
