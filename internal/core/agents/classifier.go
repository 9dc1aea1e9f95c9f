package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
	"github.com/samakshmehra/document-processing-system/internal/core/ports"
)

type Classifier struct {
	store ports.RecordStore
	rules Rules
}

func NewClassifier(store ports.RecordStore, rules Rules) *Classifier {
	return &Classifier{
		store: store,
		rules: rules.Normalize(),
	}
}

// Classify detects format and intent, opens a new thread and records the
// CLASSIFY step. Content never makes it fail; only the store can.
func (c *Classifier) Classify(ctx context.Context, doc domain.Document, correlationID string) (domain.Classification, string, error) {
	cls := c.Detect(doc)
	threadID := uuid.NewString()

	_, err := c.store.Append(ctx, domain.MemoryRecord{
		ThreadID:      threadID,
		CorrelationID: correlationID,
		SourceAgent:   domain.SourceClassifier,
		StepType:      domain.StepClassify,
		Payload:       domain.Payload{Classification: &cls},
	})
	if err != nil {
		return cls, "", fmt.Errorf("record classification: %w", err)
	}
	return cls, threadID, nil
}

// Detect runs the format and intent heuristics without touching the store.
func (c *Classifier) Detect(doc domain.Document) domain.Classification {
	cls := domain.Classification{
		Format:       domain.FormatUnknown,
		Intent:       domain.IntentNormal,
		DeclaredName: doc.Name,
	}

	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		cls.Rationale = append(cls.Rationale, "document is empty")
		return cls
	}

	_, parseErr := decodeStrict([]byte(text))
	jsonOK := parseErr == nil
	headers := scanHeaders(text, c.rules.HeaderScanLines)
	emailLike := headers[headerFrom] && headers[headerSubject]

	ext := doc.Extension()
	switch {
	case hasExtension(ext, c.rules.JSONExtensions):
		if looksLikeJSON(text) {
			cls.Format = domain.FormatJSON
			cls.Confidence = 0.95
			cls.Rationale = append(cls.Rationale, fmt.Sprintf("declared extension %s matches JSON structure", ext))
		} else {
			cls.Rationale = append(cls.Rationale, fmt.Sprintf("declared extension %s ignored: content is not JSON-shaped", ext))
		}
	case hasExtension(ext, c.rules.EmailExtensions):
		if len(headers) > 0 {
			cls.Format = domain.FormatEmail
			cls.Confidence = 0.95
			cls.Rationale = append(cls.Rationale, fmt.Sprintf("declared extension %s matches header lines", ext))
		} else {
			cls.Rationale = append(cls.Rationale, fmt.Sprintf("declared extension %s ignored: no header lines found", ext))
		}
	}

	if cls.Format == domain.FormatUnknown {
		switch {
		case jsonOK:
			cls.Format = domain.FormatJSON
			cls.Confidence = 0.9
			cls.Rationale = append(cls.Rationale, "content parsed as strict JSON")
			if emailLike {
				cls.Rationale = append(cls.Rationale, "email headers also matched; JSON parse takes priority")
			}
		case emailLike:
			cls.Format = domain.FormatEmail
			cls.Confidence = 0.7
			if headers[headerTo] {
				cls.Confidence += 0.1
			}
			if headers[headerDate] {
				cls.Confidence += 0.05
			}
			cls.Rationale = append(cls.Rationale, "From and Subject header lines found")
		default:
			cls.Rationale = append(cls.Rationale, "no JSON structure and no From/Subject header lines")
			return cls
		}
	}

	switch cls.Format {
	case domain.FormatEmail:
		parts := parseEmail(text)
		if containsAnyKeyword(parts.headers[headerSubject]+"\n"+parts.body, c.rules.UrgentKeywords) {
			cls.Intent = domain.IntentUrgent
			cls.Rationale = append(cls.Rationale, "urgency cue found in subject or body")
		} else {
			cls.Intent = domain.IntentNormal
		}
	case domain.FormatJSON:
		if jsonOK {
			cls.Intent = domain.IntentNotApplicable
		} else {
			cls.Intent = domain.IntentInvalid
			cls.Confidence = 0.6
			cls.Rationale = append(cls.Rationale, "strict JSON parse failed: "+parseErr.Error())
		}
	}
	return cls
}
