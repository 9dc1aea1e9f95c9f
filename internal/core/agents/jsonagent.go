package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
	"github.com/samakshmehra/document-processing-system/internal/core/ports"
)

type JSONAgent struct {
	store ports.RecordStore
	rules Rules
}

func NewJSONAgent(store ports.RecordStore, rules Rules) *JSONAgent {
	return &JSONAgent{
		store: store,
		rules: rules.Normalize(),
	}
}

// Extract validates and formats the document and records an EXTRACT step.
// Invalid JSON is a normal outcome reported with Valid=false.
func (a *JSONAgent) Extract(ctx context.Context, doc domain.Document, threadID, correlationID string) (domain.JSONExtraction, error) {
	extraction := a.Validate([]byte(doc.Text()))
	_, err := a.store.Append(ctx, domain.MemoryRecord{
		ThreadID:      threadID,
		CorrelationID: correlationID,
		SourceAgent:   domain.SourceJSONAgent,
		StepType:      domain.StepExtract,
		Payload:       domain.Payload{JSON: &extraction},
	})
	if err != nil {
		return extraction, fmt.Errorf("record json extraction: %w", err)
	}
	return extraction, nil
}

func (a *JSONAgent) Validate(data []byte) domain.JSONExtraction {
	if strings.TrimSpace(string(data)) == "" {
		return domain.JSONExtraction{Valid: false, Error: "document is empty", ErrorLine: 1, ErrorColumn: 1}
	}

	value, err := decodeStrict(data)
	if err != nil {
		out := domain.JSONExtraction{Valid: false, Error: err.Error()}
		var locErr *jsonLocationError
		if errors.As(err, &locErr) {
			out.ErrorLine, out.ErrorColumn = lineColumn(data, locErr.offset)
			out.Error = fmt.Sprintf("%s (line %d, column %d)", err.Error(), out.ErrorLine, out.ErrorColumn)
		}
		return out
	}

	formatted, err := canonicalJSON(value)
	if err != nil {
		return domain.JSONExtraction{Valid: false, Error: fmt.Sprintf("re-serialize: %v", err)}
	}

	return domain.JSONExtraction{
		Valid:         true,
		Formatted:     formatted,
		Structure:     summarizeStructure(value),
		MissingFields: a.missingFields(value),
	}
}

func (a *JSONAgent) missingFields(value any) []string {
	if len(a.rules.RequiredJSONFields) == 0 {
		return nil
	}
	obj, ok := value.(map[string]any)
	var missing []string
	for _, field := range a.rules.RequiredJSONFields {
		if !ok {
			missing = append(missing, field)
			continue
		}
		if _, present := obj[field]; !present {
			missing = append(missing, field)
		}
	}
	return missing
}
